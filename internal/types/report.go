package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceReport is the read-side reduction of a full trade history.
//
// Annualized return, max drawdown and Sharpe ratio belong to the downstream
// analytics collaborator; they are deliberately not part of this report.
type PerformanceReport struct {
	// Timestamp is when this report was computed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Total count of trades in history, buys included.
	TotalTrades int `yaml:"total_trades" json:"total_trades"`
	// Count of sell trades with positive profit.
	WinTrades int `yaml:"win_trades" json:"win_trades"`
	// Count of sell trades with negative profit.
	LoseTrades int `yaml:"lose_trades" json:"lose_trades"`
	// WinRate is WinTrades over TotalTrades.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// TotalProfit is the sum of realized sell profits.
	TotalProfit    float64 `yaml:"total_profit" json:"total_profit"`
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalCapital   float64 `yaml:"final_capital" json:"final_capital"`
	// ReturnRate is (FinalCapital - InitialCapital) / InitialCapital.
	ReturnRate float64 `yaml:"return_rate" json:"return_rate"`
}

// WritePerformanceReport serializes the report to a YAML file.
func WritePerformanceReport(path string, report PerformanceReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal performance report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write performance report to file: %w", err)
	}

	return nil
}
