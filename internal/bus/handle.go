package bus

import (
	"fmt"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"go.uber.org/zap"
)

// TriggerEvent is the payload carried on every node output handle.
// Every variant in the trigger event taxonomy (Trigger, ConditionMatch,
// DataReady, OrderResult, VariableUpdate) is represented by this single
// envelope with a Kind discriminator plus the fields relevant to that
// kind, avoiding a sum-type boundary that Go cannot express cheaply.
type TriggerEvent struct {
	Kind        TriggerKind
	FromNodeID  types.NodeId
	FromHandle  types.HandleId
	PlayIndex   types.PlayIndex
	CycleID     types.CycleId

	CaseID     types.ConfigId // ConditionMatch; IsElse marks the else branch
	IsElse     bool
	ConfigID   types.ConfigId // DataReady / VariableUpdate
	Success    bool           // OrderResult
	Code       string         // OrderResult failure code
}

// TriggerKind discriminates TriggerEvent's variant.
type TriggerKind string

const (
	TriggerGeneric         TriggerKind = "trigger"
	TriggerConditionMatch  TriggerKind = "condition_match"
	TriggerDataReady       TriggerKind = "data_ready"
	TriggerOrderResult     TriggerKind = "order_result"
	TriggerVariableUpdate  TriggerKind = "variable_update"
)

// OutputHandle owns a broadcast channel and the config_id tag used by
// downstream filters (case id for IfElse, order-config id for
// FuturesOrder, ...).
type OutputHandle struct {
	ID       types.HandleId
	ConfigID types.ConfigId
	ch       *Broadcast[TriggerEvent]
}

// NewOutputHandle creates an output handle owned by ownerNodeID.
func NewOutputHandle(logger *zap.Logger, ownerNodeID types.NodeId, id types.HandleId) *OutputHandle {
	return &OutputHandle{
		ID: id,
		ch: NewBroadcast[TriggerEvent](logger, string(ownerNodeID)+"/"+string(id)),
	}
}

// Publish emits an event on this handle.
func (h *OutputHandle) Publish(ev TriggerEvent) {
	h.ch.Publish(ev)
}

// Subscribe returns a receive channel for this handle's events.
func (h *OutputHandle) Subscribe() <-chan TriggerEvent {
	return h.ch.Subscribe()
}

// HandleRegistry tracks a node's output handles. Registering an id
// twice panics, so a node has at most one default handle; the
// one-edge-per-handle-pair rule is enforced by EdgeSet, not here.
type HandleRegistry struct {
	owner   types.NodeId
	logger  *zap.Logger
	outputs map[types.HandleId]*OutputHandle
}

// NewHandleRegistry creates an empty registry for owner.
func NewHandleRegistry(logger *zap.Logger, owner types.NodeId) *HandleRegistry {
	return &HandleRegistry{
		owner:   owner,
		logger:  logger,
		outputs: make(map[types.HandleId]*OutputHandle),
	}
}

// Register adds a new output handle. Registering types.DefaultHandleId
// twice is a caller bug, not a runtime condition, and panics; registry
// construction happens once at node-build time under the builder's
// control.
func (r *HandleRegistry) Register(id types.HandleId) *OutputHandle {
	if _, exists := r.outputs[id]; exists {
		panic(fmt.Sprintf("handle %s already registered on node %s", id, r.owner))
	}
	h := NewOutputHandle(r.logger, r.owner, id)
	r.outputs[id] = h
	return h
}

// Handle looks up a previously registered output handle.
func (r *HandleRegistry) Handle(id types.HandleId) (*OutputHandle, error) {
	h, ok := r.outputs[id]
	if !ok {
		return nil, apperrors.NewNodeError(
			apperrors.CodeNodeHandleNotFound,
			fmt.Sprintf("node %s has no output handle %s", r.owner, id),
			fmt.Sprintf("节点 %s 没有输出句柄 %s", r.owner, id),
		)
	}
	return h, nil
}

// Default returns the node's single default output handle.
func (r *HandleRegistry) Default() (*OutputHandle, error) {
	return r.Handle(types.DefaultHandleId)
}

// HasDefault reports whether the default handle was registered, the
// build-time invariant "(a) exactly one default output handle per node".
func (r *HandleRegistry) HasDefault() bool {
	_, ok := r.outputs[types.DefaultHandleId]
	return ok
}

// EdgeSet enforces "at most one edge per (source HandleId, target
// HandleId) pair" across the whole strategy graph.
type EdgeSet struct {
	seen map[edgeKey]struct{}
}

type edgeKey struct {
	fromNode   types.NodeId
	fromHandle types.HandleId
	toNode     types.NodeId
	toHandle   types.HandleId
}

// NewEdgeSet creates an empty edge set.
func NewEdgeSet() *EdgeSet {
	return &EdgeSet{seen: make(map[edgeKey]struct{})}
}

// Add registers an edge, returning an error if it duplicates an
// existing (fromHandle, toHandle) pair.
func (s *EdgeSet) Add(e types.EdgeConfig) error {
	k := edgeKey{e.FromNode, e.FromHandle, e.ToNode, e.ToHandle}
	if _, dup := s.seen[k]; dup {
		return apperrors.NewStrategyError(
			apperrors.CodeStrategyInvalidConfig,
			fmt.Sprintf("duplicate edge %s:%s -> %s:%s", e.FromNode, e.FromHandle, e.ToNode, e.ToHandle),
			fmt.Sprintf("重复的边 %s:%s -> %s:%s", e.FromNode, e.FromHandle, e.ToNode, e.ToHandle),
		)
	}
	s.seen[k] = struct{}{}
	return nil
}
