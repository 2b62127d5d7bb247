package reporting

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"chronos-lab/internal/domain"
)

// maxReasonLen caps the rationale cell in trade log rows.
const maxReasonLen = 100

// tradeLogHeader is the fixed column set of persona trade logs.
const tradeLogHeader = "date,action,symbol,quantity,price,usd_amount,reason,portfolio_value_after"

// RenderTradeLogCSV renders one persona's trade history as CSV, HOLD
// entries included.
func RenderTradeLogCSV(records []*domain.TradeRecord) string {
	var sb strings.Builder
	sb.WriteString(tradeLogHeader)
	sb.WriteString("\n")

	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.8f,%.2f,%.2f,\"%s\",%.2f\n",
			rec.Date,
			rec.Action,
			rec.Symbol,
			rec.Quantity,
			rec.Price,
			rec.USDAmount,
			sanitizeReason(rec.Reason),
			rec.PortfolioValueAfter,
		))
	}

	return sb.String()
}

// sanitizeReason flattens a decision rationale into one CSV-safe cell.
// Commas become semicolons, newlines spaces, double quotes single
// quotes; anything past 100 characters is cut.
func sanitizeReason(reason string) string {
	replacer := strings.NewReplacer(",", ";", "\n", " ", "\r", " ", `"`, "'")
	s := replacer.Replace(reason)
	if utf8.RuneCountInString(s) > maxReasonLen {
		s = string([]rune(s)[:maxReasonLen])
	}
	return s
}
