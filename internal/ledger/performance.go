package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Point is a dated value used for boundary lookups in performance windows
type Point struct {
	Date  time.Time
	Value decimal.Decimal
	Price decimal.Decimal
}

// Performance summarizes the change of a value between two snapshot boundaries
type Performance struct {
	StartDate          time.Time        `json:"startDate"`
	EndDate            time.Time        `json:"endDate"`
	StartValue         decimal.Decimal  `json:"startValue"`
	EndValue           decimal.Decimal  `json:"endValue"`
	ChangeValue        decimal.Decimal  `json:"changeValue"`
	ChangePercent      decimal.Decimal  `json:"changePercent"`
	PriceChangePercent *decimal.Decimal `json:"priceChangePercent,omitempty"`
}

// Compare builds a Performance between start and end.
// When withPrice is set the price change is reported as well.
func Compare(start, end Point, withPrice bool) Performance {
	p := Performance{
		StartDate:     start.Date,
		EndDate:       end.Date,
		StartValue:    start.Value,
		EndValue:      end.Value,
		ChangeValue:   end.Value.Sub(start.Value),
		ChangePercent: ChangePercent(start.Value, end.Value),
	}
	if withPrice {
		pc := ChangePercent(start.Price, end.Price)
		p.PriceChangePercent = &pc
	}
	return p
}
