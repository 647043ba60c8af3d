package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/afsmo/state"
)

// SmoothedFeed is sent the record of every run that reached the engine and wrote its output,
// whether or not the record was stored in a ledger.
// Outputs reused from a cache or ledger are not sent.
var SmoothedFeed = event.FeedOf[*state.Record]{}
