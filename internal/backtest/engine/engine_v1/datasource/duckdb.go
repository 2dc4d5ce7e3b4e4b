package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantflow/stock-backtest/internal/logger"
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/quantflow/stock-backtest/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource serves historical bars out of an in-memory DuckDB
// database populated from a CSV or parquet file.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBDataSource creates a new DuckDB-backed data source.
// Call Initialize to load bars before reading.
func NewDuckDBDataSource(log *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize implements DataSource. The file format is picked by extension;
// columns must include symbol, time, open, high, low, close, volume, amount.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = "read_parquet"
	case ".csv":
		reader = "read_csv_auto"
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file: %s", path)
	}

	// Raw SQL as Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM %s('%s');
	`, reader, path)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to load market data", err)
	}

	return nil
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	selectQuery := d.sq.
		Select("DISTINCT symbol").
		From("market_data").
		OrderBy("symbol").
		RunWith(d.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// ReadSymbol implements DataSource.
func (d *DuckDBDataSource) ReadSymbol(symbol string) ([]types.MarketData, error) {
	selectQuery := d.sq.
		Select("symbol", "time", "open", "high", "low", "close", "volume", "amount").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time ASC").
		RunWith(d.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query bars for %s", symbol)
	}
	defer rows.Close()

	var bars []types.MarketData

	for rows.Next() {
		var bar types.MarketData

		err := rows.Scan(
			&bar.Symbol,
			&bar.Time,
			&bar.Open,
			&bar.High,
			&bar.Low,
			&bar.Close,
			&bar.Volume,
			&bar.Amount,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		bars = append(bars, bar)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating bars", err)
	}

	return bars, nil
}

// ReadLastData implements DataSource.
func (d *DuckDBDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	selectQuery := d.sq.
		Select("symbol", "time", "open", "high", "low", "close", "volume", "amount").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time DESC").
		Limit(1).
		RunWith(d.db)

	var bar types.MarketData

	err := selectQuery.QueryRow().Scan(
		&bar.Symbol,
		&bar.Time,
		&bar.Open,
		&bar.High,
		&bar.Low,
		&bar.Close,
		&bar.Volume,
		&bar.Amount,
	)
	if err == sql.ErrNoRows {
		return types.MarketData{}, errors.Newf(errors.ErrCodeNoDataFound, "no bars for symbol %s", symbol)
	}

	if err != nil {
		return types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read last bar", err)
	}

	return bar, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count() (int, error) {
	var count int

	err := d.db.QueryRow("SELECT COUNT(*) FROM market_data").Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
