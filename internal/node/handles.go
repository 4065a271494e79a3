package node

import (
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
)

// EmitDefault publishes ev on the node's default output handle,
// stamping FromNodeID/FromHandle/PlayIndex/CycleID from in.
func (r *Runtime) EmitDefault(in CycleInputs, ev bus.TriggerEvent) error {
	return r.Emit(types.DefaultHandleId, in, ev)
}

// Emit publishes ev on the named output handle, stamping identity and
// cycle fields.
func (r *Runtime) Emit(handle types.HandleId, in CycleInputs, ev bus.TriggerEvent) error {
	h, err := r.Handles.Handle(handle)
	if err != nil {
		return err
	}
	ev.FromNodeID = r.ID
	ev.FromHandle = handle
	ev.PlayIndex = in.PlayIndex
	ev.CycleID = in.CycleID
	h.Publish(ev)
	return nil
}

// RegisterOutput declares a new output handle at build time, returning
// it for the caller to tag with a ConfigID if needed.
func (r *Runtime) RegisterOutput(handle types.HandleId) *bus.OutputHandle {
	return r.Handles.Register(handle)
}
