package position

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/contactkeval/option-replay/internal/candle"
)

func TestSimulated_PnL_Sell_ProfitsOnDecay(t *testing.T) {
	s := Simulated{
		TransactionType: candle.Sell,
		EntryPrice:      decimal.NewFromFloat(100),
		CurrentPrice:    decimal.NewFromFloat(90),
	}
	assert.True(t, s.PnL().Equal(decimal.NewFromFloat(10)))
}

func TestSimulated_PnL_Buy_ProfitsOnAppreciation(t *testing.T) {
	s := Simulated{
		TransactionType: candle.Buy,
		EntryPrice:      decimal.NewFromFloat(100),
		CurrentPrice:    decimal.NewFromFloat(110),
	}
	assert.True(t, s.PnL().Equal(decimal.NewFromFloat(10)))
}

func TestLeg_PnLPoints_MatchesSimulatedConvention(t *testing.T) {
	l := Leg{
		Direction:    candle.Sell,
		EntryPrice:   decimal.NewFromFloat(50),
		CurrentPrice: decimal.NewFromFloat(45),
	}
	assert.InDelta(t, 5.0, l.PnLPoints(), 1e-9)
}

func TestLeg_ToSimulated_PreservesFields(t *testing.T) {
	l := Leg{
		OrderID:      "ord-1",
		Symbol:       "NIFTY25JAN18000CE",
		Token:        12345,
		EntryPrice:   decimal.NewFromFloat(120),
		Quantity:     50,
		OptionType:   candle.CE,
		Direction:    candle.Sell,
		CurrentPrice: decimal.NewFromFloat(100),
	}
	s := l.ToSimulated()
	assert.Equal(t, l.Symbol, s.Symbol)
	assert.Equal(t, l.Token, s.Token)
	assert.Equal(t, l.OptionType, s.OptionType)
	assert.Equal(t, l.Direction, s.TransactionType)
	assert.True(t, l.EntryPrice.Equal(s.EntryPrice))
	assert.Equal(t, l.Quantity, s.Quantity)
	assert.True(t, l.CurrentPrice.Equal(s.CurrentPrice))
}
