package execution

import (
	"fmt"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/portfolio"
)

// Minimum trade sizes. Anything smaller executes as HOLD instead of being
// rejected, so every simulated day still produces a trade record.
const (
	MinBuyNotionalUSD = 10.0
	MinSellQuantity   = 0.0001
)

// Executor turns a parsed decision into portfolio ledger operations.
type Executor struct{}

// NewExecutor creates a new trade executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute applies the decision to the portfolio at the day's close price
// and returns the action actually taken. BUY sizes against available cash,
// SELL against held quantity. Sub-minimum trades downgrade to HOLD with
// the downgrade noted in the recorded reason.
func (e *Executor) Execute(d domain.TradeDecision, p *portfolio.Portfolio, date string, price float64) domain.TradeAction {
	switch d.Action {
	case domain.ActionBuy:
		amount := p.CashBalance() * d.AmountPct / 100
		if amount < MinBuyNotionalUSD {
			p.Hold(date, price, downgradeReason("buy", d.Reason))
			return domain.ActionHold
		}
		p.Buy(date, price, amount, d.Reason)
		return domain.ActionBuy

	case domain.ActionSell:
		qty := p.Quantity() * d.AmountPct / 100
		if qty < MinSellQuantity {
			p.Hold(date, price, downgradeReason("sell", d.Reason))
			return domain.ActionHold
		}
		p.Sell(date, price, qty, d.Reason)
		return domain.ActionSell

	default:
		p.Hold(date, price, d.Reason)
		return domain.ActionHold
	}
}

// Validate is a pure pre-check mirroring Execute's sizing rules without
// mutating the portfolio. It reports whether the decision would execute
// as requested and, when it would not, why.
func (e *Executor) Validate(d domain.TradeDecision, p *portfolio.Portfolio, price float64) (bool, string) {
	if !domain.ValidAction(d.Action) {
		return false, fmt.Sprintf("invalid action %q", d.Action)
	}
	if price <= 0 {
		return false, fmt.Sprintf("non-positive price %f", price)
	}

	switch d.Action {
	case domain.ActionBuy:
		amount := p.CashBalance() * d.AmountPct / 100
		if amount < MinBuyNotionalUSD {
			return false, fmt.Sprintf("buy amount $%.2f below $%.2f minimum", amount, MinBuyNotionalUSD)
		}
	case domain.ActionSell:
		qty := p.Quantity() * d.AmountPct / 100
		if qty < MinSellQuantity {
			return false, fmt.Sprintf("sell quantity %.8f below %.4f minimum", qty, MinSellQuantity)
		}
	}

	return true, ""
}

func downgradeReason(kind, reason string) string {
	if reason == "" {
		return fmt.Sprintf("[%s below minimum, held]", kind)
	}
	return fmt.Sprintf("[%s below minimum, held] %s", kind, reason)
}
