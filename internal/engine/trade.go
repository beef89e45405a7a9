package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-replay/internal/exit"
)

// TradeLeg is the entry/exit record for one leg of a completed trade.
type TradeLeg struct {
	Symbol     string
	Token      int64
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Quantity   int
}

// Trade is one completed entry-to-exit cycle, the unit the engine returns
// and the aggregator summarizes. ID is a random uuid assigned once when the
// trade record is built at exit; it identifies the trade independently of
// its array index but carries no ordering.
type Trade struct {
	ID                   string
	EntryTime            time.Time
	ExitTime             time.Time
	Strike               float64
	Legs                 []TradeLeg
	CombinedEntryPremium decimal.Decimal
	PnLPoints            float64
	PnLAmount            decimal.Decimal
	ExitReason           exit.Reason
	WasRestarted         bool
}
