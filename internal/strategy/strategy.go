package strategy

import (
	"github.com/quantflow/stock-backtest/internal/logger"
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/quantflow/stock-backtest/pkg/errors"
)

// Portfolio gives strategies read-only access to the ledger state owned by
// the execution engine. Strategies can size orders from capital and held
// positions but can never mutate either.
type Portfolio interface {
	// GetPosition returns the position for a symbol; zero-valued if the
	// symbol has never been traded.
	GetPosition(symbol string) types.Position
	// Capital returns the currently available cash capital.
	Capital() float64
	// GetTotalValue returns capital plus the market value of held
	// positions at the given prices.
	GetTotalValue(currentPrices map[string]float64) float64
}

// Context carries the collaborators a strategy may consult while deciding.
type Context struct {
	Portfolio Portfolio
	Logger    *logger.Logger
}

// Strategy is the decision capability invoked once per (symbol, bar).
// Implementations are supplied by callers; the engine only enforces the
// contract and the accounting that follows from its output.
type Strategy interface {
	// Name identifies the strategy in logs and results.
	Name() string
	// Initialize is called once before any bar is processed. The config
	// payload is strategy-specific YAML; empty means defaults.
	Initialize(config string) error
	// Decide returns the trading signal and volume for the bar window up
	// to and including the current step. Volume is meaningful only for
	// buy and sell signals.
	Decide(ctx *Context, symbol string, window []types.MarketData) (types.Signal, int64, error)
}

// BaseStrategy is an embeddable partial implementation providing the
// default no-op Initialize. Its Decide returns
// ErrCodeStrategyNotImplemented, which the engine treats as fatal: a
// strategy without a decision method is a caller programming error, not a
// data condition.
type BaseStrategy struct{}

// Initialize implements Strategy with a no-op.
func (s *BaseStrategy) Initialize(config string) error {
	return nil
}

// Decide implements Strategy by reporting the missing implementation.
func (s *BaseStrategy) Decide(ctx *Context, symbol string, window []types.MarketData) (types.Signal, int64, error) {
	return types.SignalHold, 0, errors.New(errors.ErrCodeStrategyNotImplemented, "strategy does not implement Decide")
}
