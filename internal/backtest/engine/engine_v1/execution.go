package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/quantflow/stock-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/quantflow/stock-backtest/internal/logger"
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExecutionResult reports the outcome of a single buy or sell call.
// Business-rule rejections and internal faults are both surfaced here;
// neither is raised to the driver loop.
type ExecutionResult struct {
	// Executed is true when the trade was applied and recorded.
	Executed bool
	// Reason explains the outcome, one of the types.ExecutionReason values.
	Reason string
	// Record is the appended trade record for executed trades.
	Record optional.Option[types.TradeRecord]
}

func rejectedResult(reason string) ExecutionResult {
	return ExecutionResult{
		Executed: false,
		Reason:   reason,
		Record:   optional.None[types.TradeRecord](),
	}
}

// BacktestExecution applies buy/sell intents against the ledger. It is the
// exclusive owner of capital and per-symbol positions: every mutation goes
// through Buy or Sell, and each accepted trade appends exactly one record
// to the state before the ledger is touched, so a failed append leaves the
// ledger unchanged.
//
// Not safe for concurrent callers; a backtest run is a single decision
// stream.
type BacktestExecution struct {
	state          *BacktestState
	log            *logger.Logger
	commission     commission_fee.CommissionFee
	initialCapital float64
	capital        float64
	positions      map[string]*types.Position
}

func NewBacktestExecution(
	state *BacktestState,
	log *logger.Logger,
	commission commission_fee.CommissionFee,
	initialCapital float64,
) *BacktestExecution {
	return &BacktestExecution{
		state:          state,
		log:            log,
		commission:     commission,
		initialCapital: initialCapital,
		capital:        initialCapital,
		positions:      make(map[string]*types.Position),
	}
}

// Buy purchases volume shares of symbol at price. The commission is
// expensed from capital and does not enter the position's cost basis.
// A buy that would drive capital negative is rejected without mutation.
func (e *BacktestExecution) Buy(symbol string, price float64, volume int64, date time.Time) ExecutionResult {
	if volume <= 0 {
		e.log.Warn("Rejected buy with non-positive volume",
			zap.String("symbol", symbol),
			zap.Int64("volume", volume),
		)

		return rejectedResult(types.ExecutionReasonInvalidQuantity)
	}

	if price <= 0 {
		e.log.Warn("Rejected buy with non-positive price",
			zap.String("symbol", symbol),
			zap.Float64("price", price),
		)

		return rejectedResult(types.ExecutionReasonInvalidPrice)
	}

	amountDec := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(volume))
	amount, _ := amountDec.Float64()
	fee := e.commission.Calculate(amount)
	totalCost, _ := amountDec.Add(decimal.NewFromFloat(fee)).Float64()

	if totalCost > e.capital {
		e.log.Warn("Insufficient funds to buy",
			zap.String("symbol", symbol),
			zap.Float64("total_cost", totalCost),
			zap.Float64("capital", e.capital),
		)

		return rejectedResult(types.ExecutionReasonInsufficientFunds)
	}

	record := types.TradeRecord{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Side:       types.TradeSideBuy,
		Price:      price,
		Volume:     volume,
		Amount:     amount,
		Commission: fee,
		Profit:     0,
		ExecutedAt: date,
	}

	if err := e.state.RecordTrade(record); err != nil {
		e.log.Error("Failed to record buy trade",
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		return rejectedResult(types.ExecutionReasonInternalError)
	}

	position := e.ensurePosition(symbol)
	position.Volume += volume
	position.Cost, _ = decimal.NewFromFloat(position.Cost).Add(amountDec).Float64()
	e.capital, _ = decimal.NewFromFloat(e.capital).Sub(decimal.NewFromFloat(totalCost)).Float64()

	e.log.Info("Bought",
		zap.String("symbol", symbol),
		zap.Int64("volume", volume),
		zap.Float64("price", price),
		zap.Float64("total_cost", totalCost),
	)

	return ExecutionResult{
		Executed: true,
		Reason:   types.ExecutionReasonStrategy,
		Record:   optional.Some(record),
	}
}

// Sell disposes volume shares of symbol at price. Realized profit is
// attributed against the weighted-average cost of the position computed
// before the volume is decremented.
func (e *BacktestExecution) Sell(symbol string, price float64, volume int64, date time.Time) ExecutionResult {
	if volume <= 0 {
		e.log.Warn("Rejected sell with non-positive volume",
			zap.String("symbol", symbol),
			zap.Int64("volume", volume),
		)

		return rejectedResult(types.ExecutionReasonInvalidQuantity)
	}

	position, ok := e.positions[symbol]
	if !ok || position.Volume == 0 {
		e.log.Warn("No position to sell",
			zap.String("symbol", symbol),
		)

		return rejectedResult(types.ExecutionReasonInsufficientPosition)
	}

	if position.Volume < volume {
		e.log.Warn("Insufficient position to sell",
			zap.String("symbol", symbol),
			zap.Int64("held", position.Volume),
			zap.Int64("requested", volume),
		)

		return rejectedResult(types.ExecutionReasonInsufficientPosition)
	}

	amountDec := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(volume))
	amount, _ := amountDec.Float64()
	fee := e.commission.Calculate(amount)
	netIncomeDec := amountDec.Sub(decimal.NewFromFloat(fee))

	// Average cost of the remaining lot, taken before the decrement.
	avgCost := position.AverageCost()
	profitDec := netIncomeDec.Sub(decimal.NewFromFloat(avgCost).Mul(decimal.NewFromInt(volume)))
	profit, _ := profitDec.Float64()

	record := types.TradeRecord{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Side:       types.TradeSideSell,
		Price:      price,
		Volume:     volume,
		Amount:     amount,
		Commission: fee,
		Profit:     profit,
		ExecutedAt: date,
	}

	if err := e.state.RecordTrade(record); err != nil {
		e.log.Error("Failed to record sell trade",
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		return rejectedResult(types.ExecutionReasonInternalError)
	}

	position.Volume -= volume
	if position.Volume == 0 {
		position.Cost = 0
	} else {
		// The basis shrinks by the ratio of sold volume to the volume
		// remaining after the sale. Kept as-is so historical runs
		// reproduce identical P&L.
		position.Cost *= 1 - float64(volume)/float64(position.Volume)
	}

	netIncome, _ := netIncomeDec.Float64()
	e.capital, _ = decimal.NewFromFloat(e.capital).Add(netIncomeDec).Float64()

	e.log.Info("Sold",
		zap.String("symbol", symbol),
		zap.Int64("volume", volume),
		zap.Float64("price", price),
		zap.Float64("net_income", netIncome),
		zap.Float64("profit", profit),
	)

	return ExecutionResult{
		Executed: true,
		Reason:   types.ExecutionReasonStrategy,
		Record:   optional.Some(record),
	}
}

// GetPosition returns the position for a symbol. A symbol that has never
// been traded yields a zero-valued position, not an error.
func (e *BacktestExecution) GetPosition(symbol string) types.Position {
	if position, ok := e.positions[symbol]; ok {
		return *position
	}

	return types.Position{Symbol: symbol, Volume: 0, Cost: 0}
}

// GetPositions returns all positions with non-zero volume, sorted by symbol.
func (e *BacktestExecution) GetPositions() []types.Position {
	positions := make([]types.Position, 0, len(e.positions))

	for _, position := range e.positions {
		if position.Volume != 0 {
			positions = append(positions, *position)
		}
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	return positions
}

// GetTotalValue returns capital plus the market value of held positions at
// the given prices. A held symbol absent from currentPrices is excluded
// from the sum.
func (e *BacktestExecution) GetTotalValue(currentPrices map[string]float64) float64 {
	total := decimal.NewFromFloat(e.capital)

	for symbol, position := range e.positions {
		price, ok := currentPrices[symbol]
		if !ok {
			continue
		}

		total = total.Add(decimal.NewFromInt(position.Volume).Mul(decimal.NewFromFloat(price)))
	}

	result, _ := total.Float64()

	return result
}

// Capital returns the current cash capital.
func (e *BacktestExecution) Capital() float64 {
	return e.capital
}

// InitialCapital returns the capital the run started with.
func (e *BacktestExecution) InitialCapital() float64 {
	return e.initialCapital
}

// Reset clears all positions and restores capital for a fresh run.
func (e *BacktestExecution) Reset(initialCapital float64) {
	e.initialCapital = initialCapital
	e.capital = initialCapital
	e.positions = make(map[string]*types.Position)
}

func (e *BacktestExecution) ensurePosition(symbol string) *types.Position {
	position, ok := e.positions[symbol]
	if !ok {
		position = &types.Position{Symbol: symbol, Volume: 0, Cost: 0}
		e.positions[symbol] = position
	}

	return position
}
