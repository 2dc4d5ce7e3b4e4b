package datasource

import (
	"sort"

	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/quantflow/stock-backtest/pkg/errors"
)

// InMemoryDataSource serves bars already held in memory. It is used by
// tests and by callers that feed bars from their own collectors instead of
// a data file.
type InMemoryDataSource struct {
	bars map[string][]types.MarketData
}

// NewInMemoryDataSource creates a data source from a symbol-to-bars map.
// Bars are sorted by time per symbol.
func NewInMemoryDataSource(bars map[string][]types.MarketData) DataSource {
	sorted := make(map[string][]types.MarketData, len(bars))

	for symbol, symbolBars := range bars {
		copied := make([]types.MarketData, len(symbolBars))
		copy(copied, symbolBars)
		sort.Slice(copied, func(i, j int) bool {
			return copied[i].Time.Before(copied[j].Time)
		})
		sorted[symbol] = copied
	}

	return &InMemoryDataSource{bars: sorted}
}

// Initialize implements DataSource. The in-memory source is constructed
// with its data, so the path is ignored.
func (d *InMemoryDataSource) Initialize(path string) error {
	return nil
}

// Symbols implements DataSource.
func (d *InMemoryDataSource) Symbols() ([]string, error) {
	symbols := make([]string, 0, len(d.bars))
	for symbol := range d.bars {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// ReadSymbol implements DataSource.
func (d *InMemoryDataSource) ReadSymbol(symbol string) ([]types.MarketData, error) {
	bars, ok := d.bars[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars for symbol %s", symbol)
	}

	return bars, nil
}

// ReadLastData implements DataSource.
func (d *InMemoryDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	bars, ok := d.bars[symbol]
	if !ok || len(bars) == 0 {
		return types.MarketData{}, errors.Newf(errors.ErrCodeNoDataFound, "no bars for symbol %s", symbol)
	}

	return bars[len(bars)-1], nil
}

// Count implements DataSource.
func (d *InMemoryDataSource) Count() (int, error) {
	count := 0
	for _, bars := range d.bars {
		count += len(bars)
	}

	return count, nil
}

// Close implements DataSource.
func (d *InMemoryDataSource) Close() error {
	return nil
}
