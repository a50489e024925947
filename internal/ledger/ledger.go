// Package ledger implements the accounting rules behind holdings: applying a
// single trade, replaying a full trade history, refreshing market valuation
// and the percentage math shared by snapshots and performance reports.
//
// Everything here is pure; persistence and transactions live in the service
// and storage layers.
package ledger

import (
	"sort"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Trade is the part of a transaction the accounting rules look at
type Trade struct {
	Type   types.TransactionType
	Amount decimal.Decimal
	Price  decimal.Decimal
	Date   time.Time
}

// TradeFromTransaction extracts the accounting view of a stored transaction
func TradeFromTransaction(tx *models.Transaction) Trade {
	return Trade{
		Type:   tx.Type,
		Amount: tx.Amount,
		Price:  tx.Price,
		Date:   tx.TransactionDate,
	}
}

// ApplyTrade folds one trade into the holding aggregates.
//
// A buy re-weights the average cost by quantity. A sell leaves the average
// cost untouched and floors the amount at zero when it exceeds the position.
// Amount and price are expected to be positive; validation belongs to callers.
func ApplyTrade(h *models.Holding, t Trade) {
	switch t.Type {
	case types.TransactionBuy:
		newAmount := h.Amount.Add(t.Amount)
		if newAmount.IsZero() {
			h.AverageBuyPrice = decimal.Zero
		} else {
			cost := h.Amount.Mul(h.AverageBuyPrice).Add(t.Amount.Mul(t.Price))
			h.AverageBuyPrice = cost.Div(newAmount)
		}
		h.Amount = newAmount
		h.BuyCount++
	case types.TransactionSell:
		h.Amount = floorAtZero(h.Amount.Sub(t.Amount))
		h.SellCount++
	default:
		return
	}

	date := t.Date
	h.LastTradeDate = &date
	h.TotalInvested = h.Amount.Mul(h.AverageBuyPrice)
	h.TotalValue = h.Amount.Mul(h.CurrentPrice)
	h.ProfitLoss = h.TotalValue.Sub(h.TotalInvested)
}

// Replay rebuilds the holding aggregates from the complete trade history.
//
// Trades are processed in ascending date order. The amount is accumulated
// step by step with sells floored at zero, so ordering matters for it. The
// average buy price is recomputed from buys only (total buy value over total
// buy amount), regardless of any sells in between. CurrentPrice is preserved.
func Replay(h *models.Holding, txs []*models.Transaction) {
	ordered := make([]*models.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TransactionDate.Equal(ordered[j].TransactionDate) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].TransactionDate.Before(ordered[j].TransactionDate)
	})

	amount := decimal.Zero
	buyAmount := decimal.Zero
	buyValue := decimal.Zero
	buys, sells := 0, 0
	var last *time.Time

	for _, tx := range ordered {
		switch tx.Type {
		case types.TransactionBuy:
			amount = amount.Add(tx.Amount)
			buyAmount = buyAmount.Add(tx.Amount)
			buyValue = buyValue.Add(tx.Amount.Mul(tx.Price))
			buys++
		case types.TransactionSell:
			amount = floorAtZero(amount.Sub(tx.Amount))
			sells++
		default:
			continue
		}
		date := tx.TransactionDate
		last = &date
	}

	avg := decimal.Zero
	if buyAmount.IsPositive() {
		avg = buyValue.Div(buyAmount)
	}

	h.Amount = amount
	h.AverageBuyPrice = avg
	h.BuyCount = buys
	h.SellCount = sells
	h.LastTradeDate = last
	h.TotalInvested = amount.Mul(avg)
	h.TotalValue = amount.Mul(h.CurrentPrice)
	h.ProfitLoss = h.TotalValue.Sub(h.TotalInvested)
}

// Revalue refreshes the price-derived fields of a holding.
// Amount and AverageBuyPrice are never modified.
func Revalue(h *models.Holding, currentPrice decimal.Decimal) {
	h.CurrentPrice = currentPrice
	h.TotalValue = h.Amount.Mul(currentPrice)
	h.TotalInvested = h.Amount.Mul(h.AverageBuyPrice)
	h.ProfitLoss = h.TotalValue.Sub(h.TotalInvested)
}

// ProfitLoss returns value − invested and its percentage of invested.
// The percentage is zero when nothing was invested.
func ProfitLoss(totalValue, totalInvested decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	pl := totalValue.Sub(totalInvested)
	if !totalInvested.IsPositive() {
		return pl, decimal.Zero
	}
	return pl, pl.Div(totalInvested).Mul(hundred)
}

// ChangePercent returns (end − start) / start × 100, or zero when start is zero
func ChangePercent(start, end decimal.Decimal) decimal.Decimal {
	if start.IsZero() {
		return decimal.Zero
	}
	return end.Sub(start).Div(start).Mul(hundred)
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
