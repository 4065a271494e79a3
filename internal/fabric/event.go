// Package fabric holds the small envelope types shared across the
// engine: the market/account event wrapper and the generic one-shot
// command used by the strategy and VTS actor inboxes. Grounded on the
// teacher's internal/events.Event envelope (internal/events/event_bus.go),
// narrowed from its pub/sub-with-priority model to a plain tagged struct.
package fabric

import (
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// Channel identifies the origin of an Event.
type Channel string

const (
	ChannelMarket    Channel = "market"
	ChannelExchange  Channel = "exchange"
	ChannelBacktest  Channel = "backtest"
	ChannelAccount   Channel = "account"
	ChannelIndicator Channel = "indicator"
)

// Event is the envelope carried on the market/account data path, distinct
// from the node-to-node TriggerEvent carried on output handles.
type Event struct {
	Channel   Channel
	Datetime  time.Time
	PlayIndex types.PlayIndex
	Payload   any
}

// KlineTick is the Payload of a ChannelMarket Event for kline-driven
// nodes.
type KlineTick struct {
	Symbol string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// AccountUpdate is the Payload of a ChannelAccount Event, emitted by the
// VTS after every Tick.
type AccountUpdate struct {
	Account types.AccountState
}
