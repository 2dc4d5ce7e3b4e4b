package engine

import (
	"testing"
	"time"

	"github.com/quantflow/stock-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/quantflow/stock-backtest/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestConfigUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name           string
		yaml           string
		wantCapital    float64
		wantBroker     commission_fee.Broker
		wantStartTime  bool
		wantEndTime    bool
	}{
		{
			name: "full config",
			yaml: `
initial_capital: 100000
broker: china_a_share
start_time: 2023-01-01T00:00:00Z
end_time: 2023-12-31T00:00:00Z
`,
			wantCapital:   100000,
			wantBroker:    commission_fee.BrokerChinaAShare,
			wantStartTime: true,
			wantEndTime:   true,
		},
		{
			name: "no period",
			yaml: `
initial_capital: 50000
broker: zero_commission
`,
			wantCapital: 50000,
			wantBroker:  commission_fee.BrokerZero,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var config BacktestEngineV1Config

			err := yaml.Unmarshal([]byte(tc.yaml), &config)
			assert.NoError(t, err)
			assert.Equal(t, tc.wantCapital, config.InitialCapital)
			assert.Equal(t, tc.wantBroker, config.Broker)
			assert.Equal(t, tc.wantStartTime, config.StartTime.IsSome())
			assert.Equal(t, tc.wantEndTime, config.EndTime.IsSome())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.Validate())

	config.InitialCapital = 0
	err := config.Validate()
	assert.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func TestConfigDefaults(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 100000.0, config.InitialCapital)
	assert.Equal(t, commission_fee.BrokerChinaAShare, config.Broker)
	assert.True(t, config.StartTime.IsNone())
	assert.True(t, config.EndTime.IsNone())
}

func TestConfigSchemaContainsBrokers(t *testing.T) {
	config := EmptyConfig()

	schema, err := config.GenerateSchemaJSON()
	assert.NoError(t, err)
	assert.Contains(t, schema, "china_a_share")
	assert.Contains(t, schema, "zero_commission")
	assert.Contains(t, schema, "initial_capital")
}

func TestTestConfig(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	config := TestConfig(start, end, commission_fee.BrokerZero)
	assert.Equal(t, 100000.0, config.InitialCapital)
	assert.Equal(t, commission_fee.BrokerZero, config.Broker)
	assert.Equal(t, start, config.StartTime.Unwrap())
	assert.Equal(t, end, config.EndTime.Unwrap())
}
