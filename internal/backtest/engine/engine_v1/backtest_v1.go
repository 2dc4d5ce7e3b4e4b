package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/quantflow/stock-backtest/internal/backtest/engine"
	"github.com/quantflow/stock-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/quantflow/stock-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantflow/stock-backtest/internal/logger"
	"github.com/quantflow/stock-backtest/internal/strategy"
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/quantflow/stock-backtest/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// BacktestEngineV1 replays historical bars through loaded strategies and
// settles every resulting trade against the ledger. Strategies run
// sequentially, each against a fresh ledger and trade history.
type BacktestEngineV1 struct {
	config         BacktestEngineV1Config
	strategies     []strategy.Strategy
	strategyConfig string
	source         datasource.DataSource
	resultsFolder  string
	log            *logger.Logger
	state          *BacktestState
	execution      *BacktestExecution
	analyzer       *PerformanceAnalyzer
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{}
}

// Initialize implements engine.Engine. An empty config string selects the
// defaults; a partial config falls back to defaults per field.
func (b *BacktestEngineV1) Initialize(config string) error {
	b.config = DefaultConfig()

	if config != "" {
		if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
		}

		if b.config.InitialCapital == 0 {
			b.config.InitialCapital = DefaultConfig().InitialCapital
		}

		if b.config.Broker == "" {
			b.config.Broker = DefaultConfig().Broker
		}
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	var loggerError error
	b.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	state, err := NewBacktestState(b.log)
	if err != nil {
		return err
	}

	if err := state.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize state", err)
	}

	b.state = state
	commission := commission_fee.GetCommissionFeeHandler(b.config.Broker)
	b.execution = NewBacktestExecution(b.state, b.log, commission, b.config.InitialCapital)
	b.analyzer = NewPerformanceAnalyzer(b.state, b.execution)

	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_capital", b.config.InitialCapital),
		zap.String("broker", string(b.config.Broker)),
	)

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(s strategy.Strategy) error {
	b.strategies = append(b.strategies, s)
	b.log.Debug("Strategy loaded",
		zap.String("strategy", s.Name()),
		zap.Int("total_strategies", len(b.strategies)),
	)

	return nil
}

// SetStrategyConfig implements engine.Engine.
func (b *BacktestEngineV1) SetStrategyConfig(config string) error {
	b.strategyConfig = config

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(source datasource.DataSource) error {
	b.source = source

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchemaJSON()
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "engine is not initialized")
	}

	if len(b.strategies) == 0 {
		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies loaded")
	}

	if b.source == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "no data source set")
	}

	if b.resultsFolder == "" {
		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	return nil
}

// Run implements engine.Engine. A strategy that reports
// ErrCodeStrategyNotImplemented aborts the entire run; any other decision
// error is logged and the bar is skipped.
func (b *BacktestEngineV1) Run(ctx context.Context) error {
	if err := b.preRunCheck(); err != nil {
		return err
	}

	for _, strat := range b.strategies {
		if err := b.runStrategy(ctx, strat); err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestEngineV1) runStrategy(ctx context.Context, strat strategy.Strategy) error {
	if err := b.cleanUpRun(); err != nil {
		return err
	}

	if err := strat.Initialize(b.strategyConfig); err != nil {
		b.log.Error("Failed to initialize strategy",
			zap.String("strategy", strat.Name()),
			zap.Error(err),
		)

		return err
	}

	symbols, err := b.source.Symbols()
	if err != nil {
		return err
	}

	count, err := b.source.Count()
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(count))
	bar.Describe(fmt.Sprintf("Running %s", strat.Name()))

	strategyCtx := &strategy.Context{
		Portfolio: b.execution,
		Logger:    b.log,
	}

	for _, symbol := range symbols {
		bars, err := b.source.ReadSymbol(symbol)
		if err != nil {
			return err
		}

		bars = b.filterPeriod(bars)

		for i := range bars {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := b.processBar(strategyCtx, strat, symbol, bars[:i+1]); err != nil {
				return err
			}

			//nolint:errcheck // progress display only
			bar.Add(1)
		}
	}

	return b.writeResults(strat)
}

// processBar asks the strategy for a decision on the window ending at the
// current bar and settles it. Rejected trades are already logged by the
// execution layer and never abort the run.
func (b *BacktestEngineV1) processBar(ctx *strategy.Context, strat strategy.Strategy, symbol string, window []types.MarketData) error {
	current := window[len(window)-1]

	signal, volume, err := strat.Decide(ctx, symbol, window)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeStrategyNotImplemented) {
			b.log.Error("Strategy does not implement Decide",
				zap.String("strategy", strat.Name()),
			)

			return err
		}

		b.log.Warn("Strategy decision failed, skipping bar",
			zap.String("strategy", strat.Name()),
			zap.String("symbol", symbol),
			zap.Time("time", current.Time),
			zap.Error(err),
		)

		return nil
	}

	switch signal {
	case types.SignalBuy:
		b.execution.Buy(symbol, current.Close, volume, current.Time)
	case types.SignalSell:
		b.execution.Sell(symbol, current.Close, volume, current.Time)
	case types.SignalHold:
	}

	return nil
}

// filterPeriod drops bars outside the configured start and end times.
func (b *BacktestEngineV1) filterPeriod(bars []types.MarketData) []types.MarketData {
	startTime, startErr := b.config.StartTime.Take()
	endTime, endErr := b.config.EndTime.Take()

	if startErr != nil && endErr != nil {
		return bars
	}

	filtered := make([]types.MarketData, 0, len(bars))

	for _, bar := range bars {
		if startErr == nil && bar.Time.Before(startTime) {
			continue
		}

		if endErr == nil && bar.Time.After(endTime) {
			continue
		}

		filtered = append(filtered, bar)
	}

	return filtered
}

// writeResults exports the trade history and the performance report for a
// finished strategy run.
func (b *BacktestEngineV1) writeResults(strat strategy.Strategy) error {
	resultFolder := filepath.Join(b.resultsFolder, strat.Name())

	if err := b.state.Write(resultFolder); err != nil {
		return err
	}

	report, err := b.analyzer.CalculateReturns()
	if err != nil {
		return err
	}

	if report.IsNone() {
		b.log.Info("No trades executed, skipping performance report",
			zap.String("strategy", strat.Name()),
		)

		return nil
	}

	reportPath := filepath.Join(resultFolder, "report.yaml")
	if err := types.WritePerformanceReport(reportPath, report.Unwrap()); err != nil {
		return err
	}

	b.log.Info("Backtest results written",
		zap.String("strategy", strat.Name()),
		zap.String("folder", resultFolder),
	)

	return nil
}

// cleanUpRun resets the trade history and the ledger so each strategy
// starts from the configured initial capital.
func (b *BacktestEngineV1) cleanUpRun() error {
	if err := b.state.Cleanup(); err != nil {
		return err
	}

	b.execution.Reset(b.config.InitialCapital)

	return nil
}
