package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/shopspring/decimal"
)

// PerformanceAnalyzer reduces the accumulated trade history and ledger
// end-state into a performance report. It is a pure read-side reduction:
// it never mutates the ledger and returns consistent results as long as no
// further trades occur between calls.
type PerformanceAnalyzer struct {
	state     *BacktestState
	execution *BacktestExecution
}

func NewPerformanceAnalyzer(state *BacktestState, execution *BacktestExecution) *PerformanceAnalyzer {
	return &PerformanceAnalyzer{
		state:     state,
		execution: execution,
	}
}

// CalculateReturns produces the performance report for the run so far.
// An empty trade history is a valid terminal state with nothing to
// summarize; it yields None, not an error.
//
// Sell trades contribute their recorded profit; buys contribute zero. The
// win-rate denominator is the full trade count, buys included.
func (a *PerformanceAnalyzer) CalculateReturns() (optional.Option[types.PerformanceReport], error) {
	stats, err := a.state.calculateTradeStats()
	if err != nil {
		return optional.None[types.PerformanceReport](), err
	}

	if stats.TotalTrades == 0 {
		return optional.None[types.PerformanceReport](), nil
	}

	initialCapital := a.execution.InitialCapital()
	finalCapital := a.execution.Capital()

	var returnRate float64
	if initialCapital != 0 {
		returnRate, _ = decimal.NewFromFloat(finalCapital).
			Sub(decimal.NewFromFloat(initialCapital)).
			Div(decimal.NewFromFloat(initialCapital)).
			Float64()
	}

	report := types.PerformanceReport{
		Timestamp:      time.Now(),
		TotalTrades:    stats.TotalTrades,
		WinTrades:      stats.WinTrades,
		LoseTrades:     stats.LoseTrades,
		WinRate:        float64(stats.WinTrades) / float64(stats.TotalTrades),
		TotalProfit:    stats.TotalProfit,
		InitialCapital: initialCapital,
		FinalCapital:   finalCapital,
		ReturnRate:     returnRate,
	}

	return optional.Some(report), nil
}
