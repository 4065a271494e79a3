// Package node implements the generic per-node runtime shared by every
// concrete node kind in internal/node/catalog: lifecycle state machine,
// input/output handle wiring, cycle bookkeeping, and the retry-then-fail
// error policy. Grounded on the teacher's autonomous.TradingAgent
// Start/Stop/IsRunning pattern (internal/autonomous), narrowed from a
// single long-lived agent loop to a per-cycle, barrier-synchronized
// unit of work.
package node

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/benchmark"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/statemachine"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"go.uber.org/zap"
)

// MaxRetries is the number of times a node retries a recoverable
// strategy-command failure before triggering EncounterError, per §7's
// retry-then-fail policy (no backoff).
const MaxRetries = 3

// CycleInputs is the set of inbound trigger events a node collected for
// one cycle, keyed by the input handle id they arrived on.
type CycleInputs struct {
	PlayIndex types.PlayIndex
	CycleID   types.CycleId
	Events    map[types.HandleId][]bus.TriggerEvent
}

// EventHandler is implemented by every concrete node kind in
// internal/node/catalog. OnCycle performs the node's work for one
// cycle and publishes its own output events via rt.Handles.
type EventHandler interface {
	OnCycle(ctx context.Context, rt *Runtime, in CycleInputs) error
}

// Runtime is the generic node runtime embedded by every catalog node.
type Runtime struct {
	ID      types.NodeId
	Name    string
	Kind    types.NodeKind
	Handles *bus.HandleRegistry

	Inbox chan *fabric.Command[any, any]

	logger  *zap.Logger
	sm      *statemachine.Machine[statemachine.NodeState, statemachine.NodeTrigger]
	tracker *benchmark.CycleTracker

	handler EventHandler

	inputs  map[types.HandleId]<-chan bus.TriggerEvent
	inputMu sync.RWMutex

	cycleWatch *bus.Watch[cycleSignal]
	onComplete atomic.Pointer[func(types.CompletedCycle)]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SetOnComplete registers a callback invoked after every cycle this
// node completes, used by the workflow runtime to report into the
// current cycle's benchmark.Barrier.
func (r *Runtime) SetOnComplete(cb func(types.CompletedCycle)) {
	r.onComplete.Store(&cb)
}

type cycleSignal struct {
	playIndex types.PlayIndex
	cycleID   types.CycleId
	now       time.Time
}

// NewRuntime constructs a node runtime. handler is set once the
// concrete catalog node is built (it embeds *Runtime and back-refers to
// itself).
func NewRuntime(logger *zap.Logger, id types.NodeId, name string, kind types.NodeKind, tracker *benchmark.CycleTracker) *Runtime {
	return &Runtime{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Handles:    bus.NewHandleRegistry(logger, id),
		Inbox:      make(chan *fabric.Command[any, any], bus.DefaultCapacity),
		logger:     logger.Named(string(id)),
		sm:         statemachine.NewNodeMachine(),
		tracker:    tracker,
		inputs:     make(map[types.HandleId]<-chan bus.TriggerEvent),
		cycleWatch: bus.NewWatch(cycleSignal{}),
	}
}

// SetHandler attaches the concrete node behavior. Must be called before
// Init.
func (r *Runtime) SetHandler(h EventHandler) {
	r.handler = h
}

// State returns the node's current lifecycle state.
func (r *Runtime) State() statemachine.NodeState {
	return r.sm.CurrentState()
}

// NodeID returns the node's identity, satisfying the Node interface for
// catalog types that embed *Runtime without redeclaring it.
func (r *Runtime) NodeID() types.NodeId {
	return r.ID
}

// Node is the interface the workflow runtime drives every catalog node
// through. Concrete catalog types embed *Runtime and satisfy it either
// via promoted methods (StartNode, VariableNode) or by overriding Init
// to register their own output handles before delegating to
// Runtime.Init (KlineNode, IndicatorNode, IfElseNode, FuturesOrderNode,
// PositionNode).
type Node interface {
	NodeID() types.NodeId
	Init(ctx context.Context) error
	Run(ctx context.Context) error
	Stop()
	Reset()
}

// SubscribeInput wires an upstream output handle as this node's input
// on handleID (the local name this node will read trigger events
// under, typically matching the edge's ToHandle).
func (r *Runtime) SubscribeInput(handleID types.HandleId, upstream *bus.OutputHandle) {
	r.inputMu.Lock()
	defer r.inputMu.Unlock()
	r.inputs[handleID] = upstream.Subscribe()
}

// Init drives Checking -> Created -> Initializing -> Ready.
func (r *Runtime) Init(ctx context.Context) error {
	if _, _, err := r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeStartInit}); err != nil {
		return err
	}
	if _, _, err := r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeStartInit}); err != nil {
		return err
	}
	if !r.Handles.HasDefault() {
		r.Handles.Register(types.DefaultHandleId)
	}
	if _, _, err := r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeFinishInit}); err != nil {
		return err
	}
	return nil
}

// Run starts two goroutines, the cycle watcher and the command inbox
// loop, and moves Ready -> Running. There is no separate event
// listener: the cycle watcher drains the input channels when each
// cycle starts.
func (r *Runtime) Run(ctx context.Context) error {
	if _, _, err := r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeStartRun}); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.cycleLoop(runCtx)

	r.wg.Add(1)
	go r.commandLoop(runCtx)

	return nil
}

// Stop cancels the node's goroutines and drives Running/Completed ->
// Stopping -> Stopped.
func (r *Runtime) Stop() {
	if _, _, err := r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeStartStop}); err != nil {
		r.logger.Warn("stop requested from non-stoppable state", zap.Error(err))
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	if _, _, err := r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeFinishStop}); err != nil {
		r.logger.Warn("failed to finish stop", zap.Error(err))
	}
}

// Reset rebuilds the state machine back to Checking, clearing the
// cycle watch. Input subscriptions are left intact, since edges do not
// change across a reset.
func (r *Runtime) Reset() {
	r.sm = statemachine.NewNodeMachine()
	r.cycleWatch = bus.NewWatch(cycleSignal{})
}

// AdvanceCycle is called by the workflow runtime's play loop to signal
// a new cycle for this node to process.
func (r *Runtime) AdvanceCycle(playIndex types.PlayIndex, cycleID types.CycleId, now time.Time) {
	r.cycleWatch.Set(cycleSignal{playIndex: playIndex, cycleID: cycleID, now: now})
}

// HandleCommand enqueues an externally originated command for this
// node's command loop; used by tests and by sibling components that
// address a node directly (rare — most coordination runs over handles).
func (r *Runtime) HandleCommand(cmd *fabric.Command[any, any]) {
	r.Inbox <- cmd
}

func (r *Runtime) trigger(t statemachine.NodeTrigger) (statemachine.NodeState, []statemachine.Action, error) {
	actions, err := r.sm.Trigger(t)
	return r.sm.CurrentState(), actions, err
}

func (r *Runtime) cycleLoop(ctx context.Context) {
	defer r.wg.Done()
	watch := r.cycleWatch.Changed()
	for {
		select {
		case <-ctx.Done():
			return
		case <-watch:
			sig, _ := r.cycleWatch.Value()
			watch = r.cycleWatch.Changed()
			r.runOneCycle(ctx, sig)
		}
	}
}

func (r *Runtime) runOneCycle(ctx context.Context, sig cycleSignal) {
	started := sig.now
	in := r.collectInputs(sig)

	var outcome types.CycleOutcome
	err := r.withRetry(ctx, in)
	if err != nil {
		outcome = types.CycleOutcome{OK: false, Code: errCode(err)}
		r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeEncounterErr, Code: outcome.Code})
	} else {
		outcome = types.CycleOutcome{OK: true}
		r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeFinishRun})
		r.trigger(statemachine.NodeTrigger{Kind: statemachine.NodeStartRun})
	}

	completed := types.CompletedCycle{
		NodeID:      r.ID,
		CycleID:     sig.cycleID,
		StartedAt:   started,
		CompletedAt: time.Now(),
		Outcome:     outcome,
	}
	if r.tracker != nil {
		r.tracker.Record(completed)
	}
	if cb := r.onComplete.Load(); cb != nil {
		(*cb)(completed)
	}
}

func (r *Runtime) withRetry(ctx context.Context, in CycleInputs) error {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if r.handler == nil {
			return nil
		}
		lastErr = r.handler.OnCycle(ctx, r, in)
		if lastErr == nil {
			return nil
		}
		r.logger.Warn("node cycle failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}
	return lastErr
}

func (r *Runtime) collectInputs(sig cycleSignal) CycleInputs {
	r.inputMu.RLock()
	defer r.inputMu.RUnlock()

	events := make(map[types.HandleId][]bus.TriggerEvent, len(r.inputs))
	for handle, ch := range r.inputs {
		var collected []bus.TriggerEvent
	drain:
		for {
			select {
			case ev := <-ch:
				collected = append(collected, ev)
			default:
				break drain
			}
		}
		if len(collected) > 0 {
			events[handle] = collected
		}
	}
	return CycleInputs{PlayIndex: sig.playIndex, CycleID: sig.cycleID, Events: events}
}

func (r *Runtime) commandLoop(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.Inbox:
			cmd.Reply <- nil
		}
	}
}

func errCode(err error) string {
	if ae, ok := err.(*apperrors.Error); ok {
		return ae.Code
	}
	return apperrors.CodeNodeEventSendFail
}
