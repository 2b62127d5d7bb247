// Package reporting writes the artifacts of a finished run: per-persona
// CSV trade logs, the day-by-day results JSON and a ranked markdown
// summary.
package reporting

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"chronos-lab/internal/domain"
)

// Options contains configuration for creating a Generator.
type Options struct {
	OutputDir string
	Logger    *log.Logger
}

// Generator writes report files for finished simulation runs.
type Generator struct {
	outputDir string
	logger    *log.Logger
	now       func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator writing into opts.OutputDir.
func NewGenerator(opts Options) *Generator {
	if opts.OutputDir == "" {
		opts.OutputDir = "results"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Generator{
		outputDir: opts.OutputDir,
		logger:    opts.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate writes the complete report set for one run: a trade log CSV
// per persona, the daily results JSON and the ranked summary markdown.
func (g *Generator) Generate(run *domain.SimulationRun, dailyResults []*domain.DailyResult, trades map[string][]*domain.TradeRecord, aggregates []*domain.PersonaAggregate) error {
	for personaID, records := range trades {
		if err := g.WriteTradeLogCSV(personaID, records); err != nil {
			return err
		}
	}

	if err := g.WriteDailyResultsJSON(dailyResults); err != nil {
		return err
	}

	baseline := 0.0
	if len(aggregates) > 0 {
		baseline = aggregates[0].BaselineReturnPct
	}
	summary := g.RenderSummaryMarkdown(run, aggregates, baseline)
	if err := g.writeFile("SUMMARY.md", []byte(summary)); err != nil {
		return err
	}

	g.logger.Printf("report for run %s written to %s", run.RunID, g.outputDir)
	return nil
}

// WriteTradeLogCSV writes one persona's transactions_<personaID>.csv.
func (g *Generator) WriteTradeLogCSV(personaID string, records []*domain.TradeRecord) error {
	name := fmt.Sprintf("transactions_%s.csv", personaID)
	return g.writeFile(name, []byte(RenderTradeLogCSV(records)))
}

// WriteDailyResultsJSON writes the day-by-day results array.
func (g *Generator) WriteDailyResultsJSON(results []*domain.DailyResult) error {
	if results == nil {
		results = []*domain.DailyResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daily results: %w", err)
	}
	return g.writeFile("daily_results.json", append(data, '\n'))
}

// writeFile places one artifact under the output directory, creating it
// on first use.
func (g *Generator) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(g.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
