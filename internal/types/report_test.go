package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ReportTestSuite struct {
	suite.Suite
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (suite *ReportTestSuite) TestWritePerformanceReport() {
	report := PerformanceReport{
		Timestamp:      time.Date(2023, 1, 2, 15, 0, 0, 0, time.UTC),
		TotalTrades:    2,
		WinTrades:      1,
		LoseTrades:     0,
		WinRate:        0.5,
		TotalProfit:    95.0,
		InitialCapital: 100000.0,
		FinalCapital:   99590.0,
		ReturnRate:     -0.0041,
	}

	path := filepath.Join(suite.T().TempDir(), "report.yaml")
	suite.Require().NoError(WritePerformanceReport(path, report))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var got PerformanceReport
	suite.Require().NoError(yaml.Unmarshal(data, &got))
	suite.Equal(report.TotalTrades, got.TotalTrades)
	suite.Equal(report.WinTrades, got.WinTrades)
	suite.InDelta(report.WinRate, got.WinRate, 1e-9)
	suite.InDelta(report.TotalProfit, got.TotalProfit, 1e-9)
	suite.InDelta(report.FinalCapital, got.FinalCapital, 1e-9)
}
