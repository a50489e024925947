package ledger

import (
	"testing"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var tolerance = decimal.New(1, -6)

func genTrade(typ types.TransactionType) gopter.Gen {
	return gopter.CombineGens(
		gen.Int64Range(1, 1_000_000),  // amount in thousandths
		gen.Int64Range(1, 10_000_000), // price in cents
	).Map(func(vals []interface{}) *models.Transaction {
		return &models.Transaction{
			Type:   typ,
			Amount: decimal.New(vals[0].(int64), -3),
			Price:  decimal.New(vals[1].(int64), -2),
		}
	})
}

func genMixedTrade() gopter.Gen {
	return gen.OneGenOf(genTrade(types.TransactionBuy), genTrade(types.TransactionSell))
}

func dated(txs []*models.Transaction) []*models.Transaction {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.Transaction, len(txs))
	for i, t := range txs {
		c := *t
		c.TransactionDate = start.Add(time.Duration(i) * time.Hour)
		out[i] = &c
	}
	return out
}

func approxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

func TestLedgerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("replayed average equals total buy value over total buy amount", prop.ForAll(
		func(buys []*models.Transaction) bool {
			history := dated(buys)
			h := &models.Holding{}
			Replay(h, history)

			value, amount := decimal.Zero, decimal.Zero
			for _, b := range history {
				value = value.Add(b.Amount.Mul(b.Price))
				amount = amount.Add(b.Amount)
			}
			return h.AverageBuyPrice.Equal(value.Div(amount))
		},
		gen.SliceOfN(8, genTrade(types.TransactionBuy)),
	))

	properties.Property("incremental buys agree with replay", prop.ForAll(
		func(buys []*models.Transaction) bool {
			history := dated(buys)
			incremental := &models.Holding{}
			for _, b := range history {
				ApplyTrade(incremental, TradeFromTransaction(b))
			}
			replayed := &models.Holding{}
			Replay(replayed, history)

			return incremental.Amount.Equal(replayed.Amount) &&
				approxEqual(incremental.AverageBuyPrice, replayed.AverageBuyPrice) &&
				incremental.BuyCount == replayed.BuyCount
		},
		gen.SliceOfN(8, genTrade(types.TransactionBuy)),
	))

	properties.Property("buy average is independent of order", prop.ForAll(
		func(buys []*models.Transaction) bool {
			forward := dated(buys)
			reversed := make([]*models.Transaction, len(buys))
			for i := range buys {
				reversed[i] = buys[len(buys)-1-i]
			}
			backward := dated(reversed)

			a, b := &models.Holding{}, &models.Holding{}
			Replay(a, forward)
			Replay(b, backward)
			return approxEqual(a.AverageBuyPrice, b.AverageBuyPrice) && a.Amount.Equal(b.Amount)
		},
		gen.SliceOfN(8, genTrade(types.TransactionBuy)),
	))

	properties.Property("amount never goes negative", prop.ForAll(
		func(trades []*models.Transaction) bool {
			h := &models.Holding{}
			for _, tr := range dated(trades) {
				ApplyTrade(h, TradeFromTransaction(tr))
				if h.Amount.IsNegative() || h.TotalInvested.IsNegative() {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, genMixedTrade()),
	))

	properties.Property("incremental and replayed amounts match for mixed histories", prop.ForAll(
		func(trades []*models.Transaction) bool {
			history := dated(trades)
			incremental := &models.Holding{}
			for _, tr := range history {
				ApplyTrade(incremental, TradeFromTransaction(tr))
			}
			replayed := &models.Holding{}
			Replay(replayed, history)
			return incremental.Amount.Equal(replayed.Amount) &&
				incremental.SellCount == replayed.SellCount
		},
		gen.SliceOfN(12, genMixedTrade()),
	))

	properties.Property("removing a transaction and replaying equals a history that never had it", prop.ForAll(
		func(trades []*models.Transaction, pick int) bool {
			if len(trades) == 0 {
				return true
			}
			history := dated(trades)
			k := pick % len(history)

			remaining := make([]*models.Transaction, 0, len(history)-1)
			remaining = append(remaining, history[:k]...)
			remaining = append(remaining, history[k+1:]...)

			afterDelete := &models.Holding{}
			Replay(afterDelete, history)
			Replay(afterDelete, remaining)

			fresh := &models.Holding{}
			Replay(fresh, remaining)

			return afterDelete.Amount.Equal(fresh.Amount) &&
				afterDelete.AverageBuyPrice.Equal(fresh.AverageBuyPrice) &&
				afterDelete.BuyCount == fresh.BuyCount &&
				afterDelete.SellCount == fresh.SellCount
		},
		gen.SliceOfN(10, genMixedTrade()),
		gen.IntRange(0, 1000),
	))

	properties.Property("selling more than held always lands on zero", prop.ForAll(
		func(buy *models.Transaction, extra int64) bool {
			h := &models.Holding{}
			ApplyTrade(h, TradeFromTransaction(buy))
			ApplyTrade(h, Trade{
				Type:   types.TransactionSell,
				Amount: h.Amount.Add(decimal.New(extra, -3)),
				Price:  buy.Price,
			})
			return h.Amount.IsZero() && h.TotalInvested.IsZero()
		},
		genTrade(types.TransactionBuy),
		gen.Int64Range(1, 1_000_000),
	))

	properties.TestingRun(t)
}
