package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantflow/stock-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantflow/stock-backtest/internal/strategy"
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/quantflow/stock-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// scriptedStrategy buys a fixed volume on the first bar and sells it all
// on the last bar of the window it has seen.
type scriptedStrategy struct {
	strategy.BaseStrategy
	totalBars int
	volume    int64
}

func (s *scriptedStrategy) Name() string {
	return "scripted"
}

func (s *scriptedStrategy) Decide(ctx *strategy.Context, symbol string, window []types.MarketData) (types.Signal, int64, error) {
	switch len(window) {
	case 1:
		return types.SignalBuy, s.volume, nil
	case s.totalBars:
		position := ctx.Portfolio.GetPosition(symbol)
		if position.Volume > 0 {
			return types.SignalSell, position.Volume, nil
		}
	}

	return types.SignalHold, 0, nil
}

// abandonedStrategy has a name but no decision method.
type abandonedStrategy struct {
	strategy.BaseStrategy
}

func (s *abandonedStrategy) Name() string {
	return "abandoned"
}

type BacktestEngineV1TestSuite struct {
	suite.Suite
	engine *BacktestEngineV1
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	suite.engine = NewBacktestEngineV1().(*BacktestEngineV1)
	suite.Require().NoError(suite.engine.Initialize(""))
}

func marketBars(symbol string, closes ...float64) []types.MarketData {
	bars := make([]types.MarketData, 0, len(closes))
	for i, closePrice := range closes {
		bars = append(bars, types.MarketData{
			Symbol: symbol,
			Time:   time.Date(2023, 3, 1+i, 0, 0, 0, 0, time.UTC),
			Open:   closePrice,
			High:   closePrice,
			Low:    closePrice,
			Close:  closePrice,
			Volume: 10000,
		})
	}

	return bars
}

func (suite *BacktestEngineV1TestSuite) TestInitializeDefaults() {
	suite.InDelta(100000.0, suite.engine.config.InitialCapital, 1e-9)
	suite.InDelta(100000.0, suite.engine.execution.Capital(), 1e-9)
}

func (suite *BacktestEngineV1TestSuite) TestInitializePartialConfigKeepsDefaults() {
	engine := NewBacktestEngineV1().(*BacktestEngineV1)
	suite.Require().NoError(engine.Initialize("broker: zero_commission\n"))
	suite.InDelta(100000.0, engine.config.InitialCapital, 1e-9)
}

func (suite *BacktestEngineV1TestSuite) TestInitializeRejectsNegativeCapital() {
	engine := NewBacktestEngineV1().(*BacktestEngineV1)

	err := engine.Initialize("initial_capital: -5\n")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func (suite *BacktestEngineV1TestSuite) TestPreRunChecks() {
	err := suite.engine.Run(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoStrategies))

	suite.Require().NoError(suite.engine.LoadStrategy(&scriptedStrategy{totalBars: 3, volume: 100}))
	err = suite.engine.Run(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoDatasource))

	source := datasource.NewInMemoryDataSource(map[string][]types.MarketData{
		"600519": marketBars("600519", 10, 11, 12),
	})
	suite.Require().NoError(suite.engine.SetDataSource(source))
	err = suite.engine.Run(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoResultsDir))
}

func (suite *BacktestEngineV1TestSuite) TestRunSettlesTradesAndWritesResults() {
	source := datasource.NewInMemoryDataSource(map[string][]types.MarketData{
		"600519": marketBars("600519", 10, 11, 12),
	})

	resultsDir := suite.T().TempDir()
	suite.Require().NoError(suite.engine.LoadStrategy(&scriptedStrategy{totalBars: 3, volume: 100}))
	suite.Require().NoError(suite.engine.SetDataSource(source))
	suite.Require().NoError(suite.engine.SetResultsFolder(resultsDir))

	suite.Require().NoError(suite.engine.Run(context.Background()))

	// buy 100 at 10 costs 1005, sell 100 at 12 nets 1195
	suite.InDelta(100190.0, suite.engine.execution.Capital(), 1e-9)

	trades, err := suite.engine.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)
	suite.Equal(types.TradeSideBuy, trades[0].Side)
	suite.Equal(types.TradeSideSell, trades[1].Side)

	resultFolder := filepath.Join(resultsDir, "scripted")
	for _, file := range []string{"trades.csv", "trades.parquet", "report.yaml"} {
		_, err := os.Stat(filepath.Join(resultFolder, file))
		suite.NoError(err, file)
	}
}

func (suite *BacktestEngineV1TestSuite) TestRunSkipsReportWithoutTrades() {
	source := datasource.NewInMemoryDataSource(map[string][]types.MarketData{
		"600519": marketBars("600519", 10, 11, 12),
	})

	resultsDir := suite.T().TempDir()

	// volume 0 never produces a valid order
	suite.Require().NoError(suite.engine.LoadStrategy(&scriptedStrategy{totalBars: 1000, volume: 0}))
	suite.Require().NoError(suite.engine.SetDataSource(source))
	suite.Require().NoError(suite.engine.SetResultsFolder(resultsDir))

	suite.Require().NoError(suite.engine.Run(context.Background()))

	_, err := os.Stat(filepath.Join(resultsDir, "scripted", "report.yaml"))
	suite.True(os.IsNotExist(err))
}

func (suite *BacktestEngineV1TestSuite) TestRunAbortsOnUnimplementedStrategy() {
	source := datasource.NewInMemoryDataSource(map[string][]types.MarketData{
		"600519": marketBars("600519", 10, 11, 12),
	})

	suite.Require().NoError(suite.engine.LoadStrategy(&abandonedStrategy{}))
	suite.Require().NoError(suite.engine.SetDataSource(source))
	suite.Require().NoError(suite.engine.SetResultsFolder(suite.T().TempDir()))

	err := suite.engine.Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyNotImplemented))
}

func (suite *BacktestEngineV1TestSuite) TestRunHonorsCancellation() {
	source := datasource.NewInMemoryDataSource(map[string][]types.MarketData{
		"600519": marketBars("600519", 10, 11, 12),
	})

	suite.Require().NoError(suite.engine.LoadStrategy(&scriptedStrategy{totalBars: 3, volume: 100}))
	suite.Require().NoError(suite.engine.SetDataSource(source))
	suite.Require().NoError(suite.engine.SetResultsFolder(suite.T().TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := suite.engine.Run(ctx)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *BacktestEngineV1TestSuite) TestPeriodFilter() {
	suite.Require().NoError(suite.engine.Initialize(`
initial_capital: 100000
start_time: 2023-03-02T00:00:00Z
end_time: 2023-03-02T00:00:00Z
`))

	bars := marketBars("600519", 10, 11, 12)
	filtered := suite.engine.filterPeriod(bars)
	suite.Require().Len(filtered, 1)
	suite.Equal(11.0, filtered[0].Close)
}

func (suite *BacktestEngineV1TestSuite) TestDoubleMAEndToEnd() {
	// a rising then collapsing series forces one entry and one exit
	closes := []float64{10, 10, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 8, 7, 6, 5}
	source := datasource.NewInMemoryDataSource(map[string][]types.MarketData{
		"600519": marketBars("600519", closes...),
	})

	suite.Require().NoError(suite.engine.LoadStrategy(strategy.NewDoubleMAStrategy()))
	suite.Require().NoError(suite.engine.SetStrategyConfig(`
fast_period: 2
slow_period: 3
max_position_ratio: 0.4
stop_loss_ratio: 0.05
`))
	suite.Require().NoError(suite.engine.SetDataSource(source))
	suite.Require().NoError(suite.engine.SetResultsFolder(suite.T().TempDir()))

	suite.Require().NoError(suite.engine.Run(context.Background()))

	trades, err := suite.engine.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Require().NotEmpty(trades)
	suite.Equal(types.TradeSideBuy, trades[0].Side)

	// the collapse liquidates the position before the series ends
	suite.Zero(suite.engine.execution.GetPosition("600519").Volume)
}

func (suite *BacktestEngineV1TestSuite) TestGetConfigSchema() {
	schema, err := suite.engine.GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "initial_capital")
	suite.Contains(schema, "broker")
}
