package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quantflow/stock-backtest/internal/logger"
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/quantflow/stock-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BacktestStateTestSuite struct {
	suite.Suite
	state *BacktestState
}

func TestBacktestStateSuite(t *testing.T) {
	suite.Run(t, new(BacktestStateTestSuite))
}

func (suite *BacktestStateTestSuite) SetupTest() {
	state, err := NewBacktestState(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(state.Initialize())
	suite.state = state
}

func (suite *BacktestStateTestSuite) TearDownTest() {
	suite.Require().NoError(suite.state.Close())
}

func (suite *BacktestStateTestSuite) record(side types.TradeSide, profit float64) types.TradeRecord {
	return types.TradeRecord{
		ID:         uuid.New().String(),
		Symbol:     "600519",
		Side:       side,
		Price:      10,
		Volume:     100,
		Amount:     1000,
		Commission: 5,
		Profit:     profit,
		ExecutedAt: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *BacktestStateTestSuite) TestRecordAndReadBack() {
	written := suite.record(types.TradeSideBuy, 0)
	suite.Require().NoError(suite.state.RecordTrade(written))

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(written.ID, trades[0].ID)
	suite.Equal(written.Symbol, trades[0].Symbol)
	suite.Equal(written.Side, trades[0].Side)
	suite.InDelta(written.Amount, trades[0].Amount, 1e-9)
	suite.InDelta(written.Commission, trades[0].Commission, 1e-9)
}

func (suite *BacktestStateTestSuite) TestRecordRejectsInvalidRecord() {
	invalid := suite.record(types.TradeSideBuy, 0)
	invalid.Volume = 0

	err := suite.state.RecordTrade(invalid)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTradeRecord))

	count, countErr := suite.state.TradeCount()
	suite.Require().NoError(countErr)
	suite.Zero(count)
}

func (suite *BacktestStateTestSuite) TestTradeStats() {
	suite.Require().NoError(suite.state.RecordTrade(suite.record(types.TradeSideBuy, 0)))
	suite.Require().NoError(suite.state.RecordTrade(suite.record(types.TradeSideSell, 95)))
	suite.Require().NoError(suite.state.RecordTrade(suite.record(types.TradeSideSell, -30)))
	suite.Require().NoError(suite.state.RecordTrade(suite.record(types.TradeSideSell, 0)))

	stats, err := suite.state.calculateTradeStats()
	suite.Require().NoError(err)
	suite.Equal(4, stats.TotalTrades)
	suite.Equal(1, stats.WinTrades)
	suite.Equal(1, stats.LoseTrades)
	suite.InDelta(65.0, stats.TotalProfit, 1e-9)
}

func (suite *BacktestStateTestSuite) TestWriteExportsTradeFiles() {
	suite.Require().NoError(suite.state.RecordTrade(suite.record(types.TradeSideBuy, 0)))

	dir := suite.T().TempDir()
	suite.Require().NoError(suite.state.Write(dir))

	_, err := os.Stat(filepath.Join(dir, "trades.parquet"))
	suite.NoError(err)

	_, err = os.Stat(filepath.Join(dir, "trades.csv"))
	suite.NoError(err)
}

func (suite *BacktestStateTestSuite) TestCleanupEmptiesHistory() {
	suite.Require().NoError(suite.state.RecordTrade(suite.record(types.TradeSideBuy, 0)))
	suite.Require().NoError(suite.state.Cleanup())

	count, err := suite.state.TradeCount()
	suite.Require().NoError(err)
	suite.Zero(count)

	// the state is usable again after cleanup
	suite.NoError(suite.state.RecordTrade(suite.record(types.TradeSideBuy, 0)))
}
