package vts

import (
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"go.uber.org/zap"
)

// EventKind discriminates an Event emitted onto the VTS event bus.
type EventKind string

const (
	EventOrderFilled     EventKind = "order_filled"
	EventOrderRejected   EventKind = "order_rejected"
	EventPositionUpdated EventKind = "position_updated"
	EventPositionClosed  EventKind = "position_closed"
	EventTPHit           EventKind = "tp_hit"
	EventSLHit           EventKind = "sl_hit"
	EventLiquidated      EventKind = "liquidated"
	EventUpdateFinished  EventKind = "update_finished"
)

// Event is a single notification emitted by the engine, in the
// mandated per-tick ordering: fills, then marks/PnL, then TP/SL, then
// liquidations, then exactly one UpdateFinished.
type Event struct {
	Kind        EventKind
	Order       *types.VirtualOrder
	Position    *types.VirtualPosition
	Transaction *types.VirtualTransaction
	Account     types.AccountState
}

// EventBus is the VTS's own broadcast, separate from node output
// handles. workflow.Runtime.SubscribeEvents exposes it to outside
// subscribers; the catalog nodes read the replies to their own VTS
// requests instead of subscribing.
type EventBus struct {
	broadcast *bus.Broadcast[Event]
}

// NewEventBus creates an empty VTS event bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{broadcast: bus.NewBroadcast[Event](logger, "vts")}
}

// Subscribe returns a receive channel for every emitted Event.
func (b *EventBus) Subscribe() <-chan Event {
	return b.broadcast.Subscribe()
}

func (b *EventBus) publish(ev Event) {
	b.broadcast.Publish(ev)
}
