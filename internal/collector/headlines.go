package collector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"chronos-lab/internal/domain"
)

// monthFile mirrors one monthly news cache file. Headlines are grouped
// under their calendar date:
//
//	{"metadata": {"month": "2024-01", "count": 155},
//	 "data": {"2024-01-01": [{"title": ..., "link": ..., ...}], ...}}
type monthFile struct {
	Metadata struct {
		Month string `json:"month"`
		Count int    `json:"count"`
	} `json:"metadata"`
	Data map[string][]monthItem `json:"data"`
}

type monthItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Published string `json:"published"`
}

// publishedLayouts are the timestamp formats seen in cached feeds.
var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
}

// LoadHeadlineCache reads every monthly cache file under dir and returns
// headlines grouped by date. Files that are not YYYY-MM.json (such as
// index.json) are skipped, as are entries filed under malformed dates.
func LoadHeadlineCache(dir string) (map[string][]*domain.Headline, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read headline cache dir: %w", err)
	}

	byDate := make(map[string][]*domain.Headline)
	for _, entry := range entries {
		if entry.IsDir() || !isMonthFileName(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var month monthFile
		if err := json.Unmarshal(data, &month); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		for date, items := range month.Data {
			if _, err := time.Parse(domain.DateFormat, date); err != nil {
				continue
			}
			for _, item := range items {
				if item.Title == "" {
					continue
				}
				byDate[date] = append(byDate[date], &domain.Headline{
					Date:        date,
					Title:       item.Title,
					Source:      item.Source,
					URL:         item.Link,
					PublishedAt: parsePublished(item.Published),
				})
			}
		}
	}

	return byDate, nil
}

// isMonthFileName reports whether name looks like YYYY-MM.json.
func isMonthFileName(name string) bool {
	if filepath.Ext(name) != ".json" {
		return false
	}
	stem := name[:len(name)-len(".json")]
	_, err := time.Parse("2006-01", stem)
	return err == nil
}

// parsePublished converts a feed timestamp to Unix ms, 0 when absent or
// unrecognized.
func parsePublished(s string) int64 {
	if s == "" {
		return 0
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// sortedDates returns the map keys in ascending order.
func sortedDates(byDate map[string][]*domain.Headline) []string {
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
