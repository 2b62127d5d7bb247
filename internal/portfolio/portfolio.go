package portfolio

import (
	"chronos-lab/internal/domain"
)

// dustEpsilon is the quantity below which a position counts as fully closed.
const dustEpsilon = 1e-9

// Portfolio is one persona's cash/position ledger. It is exclusively owned
// by one persona for the lifetime of a simulation and mutated only through
// Buy, Sell and Hold. It never refuses a non-negative request: amounts are
// clamped to what is available, minimum-size rules live in the executor.
type Portfolio struct {
	personaID      string
	symbol         string
	initialCapital float64

	cash     float64
	quantity float64
	avgCost  float64

	trades    []*domain.TradeRecord
	snapshots []*domain.DailySnapshot
}

// New creates a portfolio holding initialCapital in cash and no position.
func New(personaID, symbol string, initialCapital float64) *Portfolio {
	return &Portfolio{
		personaID:      personaID,
		symbol:         symbol,
		initialCapital: initialCapital,
		cash:           initialCapital,
	}
}

// Buy spends up to usdAmount of cash at price. Requests above the cash
// balance are clamped, never rejected. The weighted average cost moves
// toward price in proportion to the purchased quantity.
func (p *Portfolio) Buy(date string, price, usdAmount float64, reason string) *domain.TradeRecord {
	if price <= 0 {
		return nil
	}

	amount := usdAmount
	if amount > p.cash {
		amount = p.cash
	}
	if amount <= 0 {
		return nil
	}

	qty := amount / price
	p.avgCost = (p.quantity*p.avgCost + qty*price) / (p.quantity + qty)
	p.quantity += qty
	p.cash -= amount

	return p.record(domain.ActionBuy, date, price, qty, amount, reason)
}

// Sell liquidates up to qty units at price. Requests above the held quantity
// are clamped. A partial sale leaves the average cost unchanged; a sale that
// empties the position resets quantity and average cost to zero.
func (p *Portfolio) Sell(date string, price, qty float64, reason string) *domain.TradeRecord {
	if price <= 0 {
		return nil
	}

	sold := qty
	if sold > p.quantity {
		sold = p.quantity
	}
	if sold <= 0 {
		return nil
	}

	proceeds := sold * price
	p.quantity -= sold
	p.cash += proceeds

	if p.quantity <= dustEpsilon {
		p.quantity = 0
		p.avgCost = 0
	}

	return p.record(domain.ActionSell, date, price, sold, proceeds, reason)
}

// Hold records a zero-quantity audit entry. Every simulated day produces
// exactly one trade record per persona, so the log is a complete calendar.
func (p *Portfolio) Hold(date string, price float64, reason string) *domain.TradeRecord {
	return p.record(domain.ActionHold, date, price, 0, 0, reason)
}

// TakeSnapshot captures end-of-day state at price and appends it to history.
func (p *Portfolio) TakeSnapshot(date string, price float64) *domain.DailySnapshot {
	total := p.TotalValue(price)

	snap := &domain.DailySnapshot{
		PersonaID:     p.personaID,
		Date:          date,
		Price:         price,
		CashBalance:   p.cash,
		Quantity:      p.quantity,
		AverageCost:   p.avgCost,
		PositionValue: p.quantity * price,
		TotalValue:    total,
		ReturnPct:     p.ReturnPct(price),
	}
	if n := len(p.snapshots); n > 0 && p.snapshots[n-1].TotalValue > 0 {
		prev := p.snapshots[n-1].TotalValue
		snap.DailyReturnPct = (total - prev) / prev * 100
	}

	p.snapshots = append(p.snapshots, snap)
	return snap
}

// TotalValue returns cash plus the position valued at price.
func (p *Portfolio) TotalValue(price float64) float64 {
	return p.cash + p.quantity*price
}

// ReturnPct returns the cumulative return vs initial capital at price.
func (p *Portfolio) ReturnPct(price float64) float64 {
	if p.initialCapital == 0 {
		return 0
	}
	return (p.TotalValue(price) - p.initialCapital) / p.initialCapital * 100
}

// CashBalance returns the current USD cash.
func (p *Portfolio) CashBalance() float64 { return p.cash }

// Quantity returns the held base units.
func (p *Portfolio) Quantity() float64 { return p.quantity }

// AverageCost returns the weighted average purchase price, 0 when flat.
func (p *Portfolio) AverageCost() float64 { return p.avgCost }

// InitialCapital returns the starting cash.
func (p *Portfolio) InitialCapital() float64 { return p.initialCapital }

// PersonaID returns the owning persona.
func (p *Portfolio) PersonaID() string { return p.personaID }

// Symbol returns the traded pair.
func (p *Portfolio) Symbol() string { return p.symbol }

// Trades returns the ordered trade history. The slice is shared; callers
// must not mutate it.
func (p *Portfolio) Trades() []*domain.TradeRecord { return p.trades }

// Snapshots returns the ordered snapshot history. The slice is shared;
// callers must not mutate it.
func (p *Portfolio) Snapshots() []*domain.DailySnapshot { return p.snapshots }

func (p *Portfolio) record(action domain.TradeAction, date string, price, qty, usdAmount float64, reason string) *domain.TradeRecord {
	rec := &domain.TradeRecord{
		PersonaID:           p.personaID,
		Date:                date,
		Action:              action,
		Symbol:              p.symbol,
		Quantity:            qty,
		Price:               price,
		USDAmount:           usdAmount,
		Reason:              reason,
		PortfolioValueAfter: p.TotalValue(price),
	}
	p.trades = append(p.trades, rec)
	return rec
}
