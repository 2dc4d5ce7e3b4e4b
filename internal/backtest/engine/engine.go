package engine

import (
	"context"

	"github.com/quantflow/stock-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantflow/stock-backtest/internal/strategy"
)

// Engine runs strategies over historical market data and produces trade
// and performance results.
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// LoadStrategy registers a strategy. Can be called multiple times to
	// run several strategies in one backtest.
	LoadStrategy(s strategy.Strategy) error
	// SetStrategyConfig sets the YAML config passed to each strategy's
	// Initialize before the run.
	SetStrategyConfig(config string) error
	// SetDataSource sets the market data source for the run.
	SetDataSource(source datasource.DataSource) error
	// SetResultsFolder sets the output directory for trade history and
	// performance reports.
	SetResultsFolder(folder string) error
	// Run executes every loaded strategy over every symbol in the data
	// source. The context can cancel the run between bars.
	Run(ctx context.Context) error
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
