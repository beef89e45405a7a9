// Package config defines the closed, validated request and service
// configuration shapes for the backtesting core, and the layered
// load order (defaults -> JSON file -> env -> CLI flags) a production
// deployment uses to assemble them. Grounded on the teacher's Config
// struct in internal/backtest/engine/executor.go, generalized from a
// single flat equities config into the spec's options-strategy request.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// StrategyType selects which straddle variant a backtest enters.
type StrategyType string

const (
	ATMStraddle     StrategyType = "ATM_STRADDLE"
	SellATMStraddle StrategyType = "SELL_ATM_STRADDLE"
)

// SLTargetMode selects whether exits are evaluated in absolute points or
// as a percentage of the entry premium.
type SLTargetMode string

const (
	ModePoints  SLTargetMode = "POINTS"
	ModePremium SLTargetMode = "PREMIUM"
)

// BacktestRequest is the closed set of fields a caller supplies to run one
// day's backtest. Field tags drive both JSON (de)serialization at the
// HTTP facade and struct-level validation via go-playground/validator.
type BacktestRequest struct {
	Date         time.Time    `json:"date" validate:"required"`
	StrategyType StrategyType `json:"strategyType" validate:"required,oneof=ATM_STRADDLE SELL_ATM_STRADDLE"`
	Underlying   string       `json:"underlying" validate:"required,oneof=NIFTY BANKNIFTY FINNIFTY"`
	ExpiryDate   time.Time    `json:"expiryDate" validate:"required"`
	Lots         int          `json:"lots" validate:"required,gt=0"`

	SLTargetMode          SLTargetMode `json:"slTargetMode" validate:"required,oneof=POINTS PREMIUM"`
	StopLossPoints        float64      `json:"stopLossPoints" validate:"gte=0"`
	TargetPoints          float64      `json:"targetPoints" validate:"gte=0"`
	TargetDecayPct        float64      `json:"targetDecayPct" validate:"gte=0,lte=100"`
	StopLossExpansionPct  float64      `json:"stopLossExpansionPct" validate:"gte=0"`

	StartTime         string `json:"startTime" validate:"required,timeOfDay"`
	EndTime           string `json:"endTime" validate:"required,timeOfDay"`
	AutoSquareOffTime string `json:"autoSquareOffTime" validate:"required,timeOfDay"`
	CandleInterval    string `json:"candleInterval" validate:"required"`

	AutoRestartEnabled bool `json:"autoRestartEnabled"`
	MaxAutoRestarts    int  `json:"maxAutoRestarts" validate:"gte=0"`

	TrailingStopEnabled   bool    `json:"trailingStopEnabled"`
	TrailingActivationPts float64 `json:"trailingActivationPoints" validate:"gte=0"`
	TrailingDistancePts   float64 `json:"trailingDistancePoints" validate:"gte=0"`

	ReportDir string `json:"reportDir"`
	Verbosity int    `json:"verbosity" validate:"gte=0,lte=3"`
	Seed      int64  `json:"seed"`
}

// WithDefaults returns a copy of req with every absent field populated per
// spec.md §6 "Defaults when absent".
func (req BacktestRequest) WithDefaults() BacktestRequest {
	if req.TargetPoints == 0 {
		req.TargetPoints = 2.5
	}
	if req.StopLossPoints == 0 {
		req.StopLossPoints = 4.0
	}
	if req.TargetDecayPct == 0 {
		req.TargetDecayPct = 5.0
	}
	if req.StopLossExpansionPct == 0 {
		req.StopLossExpansionPct = 10.0
	}
	if req.AutoSquareOffTime == "" {
		req.AutoSquareOffTime = "15:10"
	}
	if req.CandleInterval == "" {
		req.CandleInterval = "minute"
	}
	return req
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("timeOfDay", validateTimeOfDay)
	return v
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

// Validate enforces the closed-enum and range constraints implied by
// spec.md §6/§7. A failing request surfaces as ErrValidation, which the
// facade maps to a FAILED result before the engine ever runs.
func Validate(req BacktestRequest) error {
	if err := validate.Struct(req); err != nil {
		return &ValidationError{cause: err}
	}
	return nil
}

// ValidationError wraps a validator.ValidationErrors so callers can use
// errors.Is/errors.As against ErrValidation without depending on the
// validator package directly.
type ValidationError struct {
	cause error
}

func (e *ValidationError) Error() string { return "invalid backtest request: " + e.cause.Error() }
func (e *ValidationError) Unwrap() error { return e.cause }
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ErrValidation is the sentinel target for errors.Is checks against any
// ValidationError.
var ErrValidation = &ValidationError{}
