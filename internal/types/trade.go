package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/quantflow/stock-backtest/pkg/errors"
)

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

const (
	ExecutionReasonStrategy             string = "strategy"
	ExecutionReasonInsufficientFunds    string = "insufficient_funds"
	ExecutionReasonInsufficientPosition string = "insufficient_position"
	ExecutionReasonInvalidQuantity      string = "invalid_quantity"
	ExecutionReasonInvalidPrice         string = "invalid_price"
	ExecutionReasonInternalError        string = "internal_error"
)

// TradeRecord is an immutable log entry for one accepted buy or sell.
// Records are created exclusively by the execution engine and are never
// mutated or deleted once appended.
type TradeRecord struct {
	ID     string    `yaml:"id" json:"id" csv:"id"`
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side   TradeSide `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Price  float64   `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	Volume int64     `yaml:"volume" json:"volume" csv:"volume" validate:"required,gt=0"`
	// Amount is the notional of the trade: Price * Volume.
	Amount     float64 `yaml:"amount" json:"amount" csv:"amount" validate:"gt=0"`
	Commission float64 `yaml:"commission" json:"commission" csv:"commission" validate:"gte=0"`
	// Profit is the realized profit for sell records, net of commission.
	// Always 0 for buy records since a buy alone realizes nothing.
	Profit     float64   `yaml:"profit" json:"profit" csv:"profit"`
	ExecutedAt time.Time `yaml:"executed_at" json:"executed_at" csv:"executed_at" validate:"required"`
}

// Validate validates the TradeRecord struct.
func (t *TradeRecord) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTradeRecord, "invalid trade record", err)
	}

	return nil
}

// Position represents the currently held volume of a symbol and its
// aggregate cost basis. Cost is the total basis of the held volume, not
// per-share; commissions are expensed from capital and never enter Cost.
// Invariant: Volume == 0 implies Cost == 0.
type Position struct {
	Symbol string  `yaml:"symbol" json:"symbol" csv:"symbol"`
	Volume int64   `yaml:"volume" json:"volume" csv:"volume"`
	Cost   float64 `yaml:"cost" json:"cost" csv:"cost"`
}

// AverageCost returns the per-share cost basis of the position.
func (p *Position) AverageCost() float64 {
	if p.Volume == 0 {
		return 0
	}

	return p.Cost / float64(p.Volume)
}
