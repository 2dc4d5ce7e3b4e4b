package datasource

import (
	"github.com/quantflow/stock-backtest/internal/types"
)

// DataSource supplies per-symbol ordered historical price bars to the
// backtest engine. The engine treats the data as read-only context; it
// never fetches, caches or validates it.
type DataSource interface {
	// Initialize loads the data source from the given data path.
	// CSV and parquet files are supported.
	Initialize(path string) error
	// Symbols returns the distinct symbols in the data source, sorted.
	Symbols() ([]string, error)
	// ReadSymbol returns all bars for a symbol ordered by time ascending.
	ReadSymbol(symbol string) ([]types.MarketData, error)
	// ReadLastData returns the most recent bar for a symbol.
	ReadLastData(symbol string) (types.MarketData, error)
	// Count returns the total number of bars in the data source.
	Count() (int, error)
	// Close closes the data source and releases any resources.
	Close() error
}
