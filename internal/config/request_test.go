package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReq() BacktestRequest {
	return BacktestRequest{
		Date:              time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		StrategyType:      SellATMStraddle,
		Underlying:        "NIFTY",
		ExpiryDate:        time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		Lots:              1,
		SLTargetMode:      ModePoints,
		TargetPoints:      2.5,
		StopLossPoints:    4.0,
		StartTime:         "09:15",
		EndTime:           "15:30",
		AutoSquareOffTime: "15:10",
		CandleInterval:    "minute",
	}
}

func TestValidate_AcceptsWellFormedRequest(t *testing.T) {
	require.NoError(t, Validate(validReq()))
}

func TestValidate_RejectsUnknownUnderlying(t *testing.T) {
	req := validReq()
	req.Underlying = "SENSEX"

	err := Validate(req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestValidate_RejectsZeroLots(t *testing.T) {
	req := validReq()
	req.Lots = 0

	err := Validate(req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestValidate_RejectsMalformedTimeOfDay(t *testing.T) {
	req := validReq()
	req.StartTime = "9:15am"

	err := Validate(req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestValidate_RejectsUnknownStrategyType(t *testing.T) {
	req := validReq()
	req.StrategyType = "IRON_CONDOR"

	err := Validate(req)

	require.Error(t, err)
}

func TestWithDefaults_FillsOnlyAbsentFields(t *testing.T) {
	req := BacktestRequest{
		TargetPoints:   3.0,
		StopLossPoints: 0,
	}

	out := req.WithDefaults()

	assert.Equal(t, 3.0, out.TargetPoints)
	assert.Equal(t, 4.0, out.StopLossPoints)
	assert.Equal(t, 5.0, out.TargetDecayPct)
	assert.Equal(t, 10.0, out.StopLossExpansionPct)
	assert.Equal(t, "15:10", out.AutoSquareOffTime)
	assert.Equal(t, "minute", out.CandleInterval)
}

func TestWithDefaults_DoesNotOverrideExplicitAutoSquareOff(t *testing.T) {
	req := BacktestRequest{AutoSquareOffTime: "15:05"}

	out := req.WithDefaults()

	assert.Equal(t, "15:05", out.AutoSquareOffTime)
}
