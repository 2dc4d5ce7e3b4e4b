package strategy

import (
	"github.com/quantflow/stock-backtest/internal/types"
	"github.com/quantflow/stock-backtest/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DoubleMAConfig configures the dual moving average crossover strategy.
type DoubleMAConfig struct {
	// FastPeriod is the short moving average window in bars.
	FastPeriod int `yaml:"fast_period"`
	// SlowPeriod is the long moving average window in bars.
	SlowPeriod int `yaml:"slow_period"`
	// MaxPositionRatio caps each entry at this fraction of current capital.
	MaxPositionRatio float64 `yaml:"max_position_ratio"`
	// StopLossRatio exits the position when price falls this fraction
	// below the average cost.
	StopLossRatio float64 `yaml:"stop_loss_ratio"`
}

// DoubleMAStrategy trades golden and death crosses of two simple moving
// averages. It buys when the fast average is above the slow one and no
// position is held, and liquidates the entire position on a death cross or
// when the stop loss triggers.
type DoubleMAStrategy struct {
	BaseStrategy
	config DoubleMAConfig
}

func NewDoubleMAStrategy() *DoubleMAStrategy {
	return &DoubleMAStrategy{
		config: DoubleMAConfig{
			FastPeriod:       5,
			SlowPeriod:       10,
			MaxPositionRatio: 0.4,
			StopLossRatio:    0.05,
		},
	}
}

func (s *DoubleMAStrategy) Name() string {
	return "double_ma"
}

// Initialize applies the YAML config on top of the defaults. An empty
// payload keeps the defaults.
func (s *DoubleMAStrategy) Initialize(config string) error {
	if config == "" {
		return nil
	}

	if err := yaml.Unmarshal([]byte(config), &s.config); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse double MA config", err)
	}

	if s.config.FastPeriod <= 0 {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "fast_period must be positive, got %d", s.config.FastPeriod)
	}

	if s.config.SlowPeriod <= s.config.FastPeriod {
		return errors.Newf(errors.ErrCodeStrategyConfigError,
			"slow_period must exceed fast_period, got fast=%d slow=%d",
			s.config.FastPeriod, s.config.SlowPeriod)
	}

	if s.config.MaxPositionRatio <= 0 || s.config.MaxPositionRatio > 1 {
		return errors.Newf(errors.ErrCodeStrategyConfigError,
			"max_position_ratio must be in (0, 1], got %f", s.config.MaxPositionRatio)
	}

	return nil
}

// Decide emits a buy when the fast average crosses above the slow one, a
// full-position sell when it crosses below, and a full-position sell when
// the stop loss is breached. Windows shorter than the slow period hold.
func (s *DoubleMAStrategy) Decide(ctx *Context, symbol string, window []types.MarketData) (types.Signal, int64, error) {
	if len(window) < s.config.SlowPeriod {
		return types.SignalHold, 0, nil
	}

	fast := movingAverage(window, s.config.FastPeriod)
	slow := movingAverage(window, s.config.SlowPeriod)
	bar := window[len(window)-1]
	position := ctx.Portfolio.GetPosition(symbol)

	switch {
	case fast > slow:
		if position.Volume > 0 {
			return types.SignalHold, 0, nil
		}

		budget := ctx.Portfolio.Capital() * s.config.MaxPositionRatio
		shares := int64(budget / bar.Close)
		if shares <= 0 {
			return types.SignalHold, 0, nil
		}

		if ctx.Logger != nil {
			ctx.Logger.Debug("Golden cross",
				zap.String("symbol", symbol),
				zap.Float64("fast", fast),
				zap.Float64("slow", slow),
			)
		}

		return types.SignalBuy, shares, nil

	case fast < slow:
		if position.Volume == 0 {
			return types.SignalHold, 0, nil
		}

		if ctx.Logger != nil {
			ctx.Logger.Debug("Death cross",
				zap.String("symbol", symbol),
				zap.Float64("fast", fast),
				zap.Float64("slow", slow),
			)
		}

		return types.SignalSell, position.Volume, nil

	default:
		if position.Volume > 0 && bar.Close < position.AverageCost()*(1-s.config.StopLossRatio) {
			if ctx.Logger != nil {
				ctx.Logger.Debug("Stop loss triggered",
					zap.String("symbol", symbol),
					zap.Float64("price", bar.Close),
					zap.Float64("average_cost", position.AverageCost()),
				)
			}

			return types.SignalSell, position.Volume, nil
		}

		return types.SignalHold, 0, nil
	}
}

// movingAverage is the simple mean of the last period closes.
func movingAverage(window []types.MarketData, period int) float64 {
	sum := 0.0
	for _, bar := range window[len(window)-period:] {
		sum += bar.Close
	}

	return sum / float64(period)
}
