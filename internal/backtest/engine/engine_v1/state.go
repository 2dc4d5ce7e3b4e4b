package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantflow/stock-backtest/internal/logger"
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/quantflow/stock-backtest/pkg/errors"
	"go.uber.org/zap"
)

// BacktestState is the append-only audit store of a run's trade records.
// Records are inserted exactly once per accepted trade and never mutated
// or deleted afterwards.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(log *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open database", err)
	}

	return &BacktestState{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades table. The seq column preserves append
// order so reads reproduce the exact trade sequence.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`CREATE SEQUENCE IF NOT EXISTS trade_seq`)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			seq BIGINT DEFAULT nextval('trade_seq'),
			id TEXT,
			symbol TEXT,
			side TEXT,
			price DOUBLE,
			volume BIGINT,
			amount DOUBLE,
			commission DOUBLE,
			profit DOUBLE,
			executed_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	return nil
}

// RecordTrade validates and appends a single trade record.
func (b *BacktestState) RecordTrade(record types.TradeRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	insertQuery := b.sq.
		Insert("trades").
		Columns(
			"id", "symbol", "side", "price", "volume",
			"amount", "commission", "profit", "executed_at",
		).
		Values(
			record.ID, record.Symbol, string(record.Side), record.Price, record.Volume,
			record.Amount, record.Commission, record.Profit, record.ExecutedAt,
		).
		RunWith(b.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert trade", err)
	}

	return nil
}

// GetAllTrades returns all trade records in append order.
func (b *BacktestState) GetAllTrades() ([]types.TradeRecord, error) {
	selectQuery := b.sq.
		Select(
			"id", "symbol", "side", "price", "volume",
			"amount", "commission", "profit", "executed_at",
		).
		From("trades").
		OrderBy("seq ASC").
		RunWith(b.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.TradeRecord

	for rows.Next() {
		var trade types.TradeRecord

		err := rows.Scan(
			&trade.ID,
			&trade.Symbol,
			&trade.Side,
			&trade.Price,
			&trade.Volume,
			&trade.Amount,
			&trade.Commission,
			&trade.Profit,
			&trade.ExecutedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// TradeCount returns the number of recorded trades.
func (b *BacktestState) TradeCount() (int, error) {
	var count int

	err := b.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trades", err)
	}

	return count, nil
}

// tradeStats is the SQL reduction of the trade history used by the
// performance analyzer.
type tradeStats struct {
	TotalTrades int
	WinTrades   int
	LoseTrades  int
	TotalProfit float64
}

// calculateTradeStats aggregates the trade history. Wins and losses count
// only sell trades with strictly positive or strictly negative profit;
// break-even sells count toward neither.
func (b *BacktestState) calculateTradeStats() (tradeStats, error) {
	query := `
		SELECT
			COUNT(*) as total_trades,
			COALESCE(SUM(CASE WHEN side = 'SELL' AND profit > 0 THEN 1 ELSE 0 END), 0) as win_trades,
			COALESCE(SUM(CASE WHEN side = 'SELL' AND profit < 0 THEN 1 ELSE 0 END), 0) as lose_trades,
			COALESCE(SUM(CASE WHEN side = 'SELL' THEN profit ELSE 0 END), 0) as total_profit
		FROM trades
	`

	var stats tradeStats

	err := b.db.QueryRow(query).Scan(
		&stats.TotalTrades,
		&stats.WinTrades,
		&stats.LoseTrades,
		&stats.TotalProfit,
	)
	if err != nil {
		return tradeStats{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to calculate trade stats", err)
	}

	return stats, nil
}

// Write exports the trade history to parquet and CSV files in the given
// directory.
func (b *BacktestState) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Raw SQL as Squirrel doesn't support COPY
	tradesParquet := filepath.Join(path, "trades.parquet")

	_, err := b.db.Exec(fmt.Sprintf(
		`COPY (SELECT * EXCLUDE (seq) FROM trades ORDER BY seq ASC) TO '%s' (FORMAT PARQUET)`,
		tradesParquet,
	))
	if err != nil {
		return fmt.Errorf("failed to export trades to parquet: %w", err)
	}

	tradesCSV := filepath.Join(path, "trades.csv")

	_, err = b.db.Exec(fmt.Sprintf(
		`COPY (SELECT * EXCLUDE (seq) FROM trades ORDER BY seq ASC) TO '%s' (FORMAT CSV, HEADER)`,
		tradesCSV,
	))
	if err != nil {
		return fmt.Errorf("failed to export trades to CSV: %w", err)
	}

	b.logger.Info("Exported trade history",
		zap.String("parquet", tradesParquet),
		zap.String("csv", tradesCSV),
	)

	return nil
}

// Cleanup resets the state for the next run.
func (b *BacktestState) Cleanup() error {
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP SEQUENCE IF EXISTS trade_seq;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	return b.Initialize()
}

// Close releases the underlying database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}
