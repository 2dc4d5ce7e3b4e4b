package main

import (
	"context"
	"fmt"
	"log"
	"os"

	engine "github.com/quantflow/stock-backtest/internal/backtest/engine/engine_v1"
	"github.com/quantflow/stock-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantflow/stock-backtest/internal/logger"
	"github.com/quantflow/stock-backtest/internal/strategy"
	"github.com/urfave/cli/v3"
)

// backtestAction wires the engine, data source and strategy together and
// runs the backtest.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	strategyConfigPath := cmd.String("strategy-config")
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")

	engineConfig := ""

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read engine config: %w", err)
		}

		engineConfig = string(content)
	}

	strategyConfig := ""

	if strategyConfigPath != "" {
		content, err := os.ReadFile(strategyConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read strategy config: %w", err)
		}

		strategyConfig = string(content)
	}

	backtester := engine.NewBacktestEngineV1()
	if err := backtester.Initialize(engineConfig); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	source, err := datasource.NewDuckDBDataSource(log)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to load market data: %w", err)
	}

	if err := backtester.LoadStrategy(strategy.NewDoubleMAStrategy()); err != nil {
		return fmt.Errorf("failed to load strategy: %w", err)
	}

	if err := backtester.SetStrategyConfig(strategyConfig); err != nil {
		return fmt.Errorf("failed to set strategy config: %w", err)
	}

	if err := backtester.SetDataSource(source); err != nil {
		return fmt.Errorf("failed to set data source: %w", err)
	}

	if err := backtester.SetResultsFolder(outputPath); err != nil {
		return fmt.Errorf("failed to set results folder: %w", err)
	}

	if err := backtester.Run(ctx); err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a strategy backtest over historical market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine configuration YAML file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "strategy-config",
				Aliases:  []string{"s"},
				Usage:    "Path to the strategy configuration YAML file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the market data file (CSV or parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Directory for trade history and performance reports",
				Value:    "results",
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
