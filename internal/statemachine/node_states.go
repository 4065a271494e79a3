package statemachine

import "fmt"

// NodeState is a node's lifecycle state.
type NodeState string

const (
	NodeChecking     NodeState = "checking"
	NodeCreated      NodeState = "created"
	NodeInitializing NodeState = "initializing"
	NodeReady        NodeState = "ready"
	NodeRunning      NodeState = "running"
	NodeCompleted    NodeState = "completed"
	NodeStopping     NodeState = "stopping"
	NodeStopped      NodeState = "stopped"
	NodeFailed       NodeState = "failed"
)

// NodeTriggerKind identifies the trigger variant.
type NodeTriggerKind string

const (
	NodeStartInit     NodeTriggerKind = "start_init"
	NodeFinishInit    NodeTriggerKind = "finish_init"
	NodeStartRun      NodeTriggerKind = "start_run"
	NodeFinishRun     NodeTriggerKind = "finish_run"
	NodeStartStop     NodeTriggerKind = "start_stop"
	NodeFinishStop    NodeTriggerKind = "finish_stop"
	NodeEncounterErr  NodeTriggerKind = "encounter_error"
)

// NodeTrigger is a trigger applied to a node state machine.
type NodeTrigger struct {
	Kind NodeTriggerKind
	Code string // populated when Kind == NodeEncounterErr
}

var nodeTransitions = map[NodeState]map[NodeTriggerKind]NodeState{
	NodeChecking:     {NodeStartInit: NodeCreated},
	NodeCreated:      {NodeStartInit: NodeInitializing},
	NodeInitializing: {NodeFinishInit: NodeReady},
	NodeReady:        {NodeStartRun: NodeRunning},
	NodeRunning: {
		NodeFinishRun: NodeCompleted,
		NodeStartStop: NodeStopping,
	},
	NodeCompleted: {
		NodeStartRun:  NodeRunning,
		NodeStartStop: NodeStopping,
	},
	NodeStopping: {NodeFinishStop: NodeStopped},
}

// NewNodeMachine builds the node lifecycle state machine from
// Checking through Stopped, with Failed reachable from any non-terminal
// state via EncounterError.
func NewNodeMachine() *Machine[NodeState, NodeTrigger] {
	return New(NodeChecking, nodeTransition, "NODE")
}

func nodeTransition(current NodeState, t NodeTrigger) (NodeState, []Action, error) {
	if t.Kind == NodeEncounterErr {
		if current == NodeStopped || current == NodeFailed {
			return current, nil, fmt.Errorf("cannot encounter error from terminal state %s", current)
		}
		return NodeFailed, nil, nil
	}

	if current == NodeStopped || current == NodeFailed {
		return current, nil, fmt.Errorf("no transitions out of terminal state %s", current)
	}

	next, ok := nodeTransitions[current][t.Kind]
	if !ok {
		return current, nil, fmt.Errorf("illegal trigger %s in state %s", t.Kind, current)
	}
	return next, nil, nil
}
