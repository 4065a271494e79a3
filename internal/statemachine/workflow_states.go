package statemachine

import "fmt"

// WorkflowState mirrors NodeState with an additional Paused state
// reachable from Running.
type WorkflowState string

const (
	WorkflowChecking     WorkflowState = "checking"
	WorkflowCreated      WorkflowState = "created"
	WorkflowInitializing WorkflowState = "initializing"
	WorkflowReady        WorkflowState = "ready"
	WorkflowRunning      WorkflowState = "running"
	WorkflowPaused       WorkflowState = "paused"
	WorkflowCompleted    WorkflowState = "completed"
	WorkflowStopping     WorkflowState = "stopping"
	WorkflowStopped      WorkflowState = "stopped"
	WorkflowFailed       WorkflowState = "failed"
)

// WorkflowTriggerKind mirrors NodeTriggerKind plus Pause/Resume.
type WorkflowTriggerKind string

const (
	WorkflowStartInit    WorkflowTriggerKind = "start_init"
	WorkflowFinishInit   WorkflowTriggerKind = "finish_init"
	WorkflowStartRun     WorkflowTriggerKind = "start_run"
	WorkflowFinishRun    WorkflowTriggerKind = "finish_run"
	WorkflowPause        WorkflowTriggerKind = "pause"
	WorkflowResume       WorkflowTriggerKind = "resume"
	WorkflowStartStop    WorkflowTriggerKind = "start_stop"
	WorkflowFinishStop   WorkflowTriggerKind = "finish_stop"
	WorkflowEncounterErr WorkflowTriggerKind = "encounter_error"
)

// WorkflowTrigger is a trigger applied to the strategy state machine.
type WorkflowTrigger struct {
	Kind WorkflowTriggerKind
	Code string
}

var workflowTransitions = map[WorkflowState]map[WorkflowTriggerKind]WorkflowState{
	WorkflowChecking:     {WorkflowStartInit: WorkflowCreated},
	WorkflowCreated:      {WorkflowStartInit: WorkflowInitializing},
	WorkflowInitializing: {WorkflowFinishInit: WorkflowReady},
	WorkflowReady:        {WorkflowStartRun: WorkflowRunning},
	WorkflowRunning: {
		WorkflowFinishRun: WorkflowCompleted,
		WorkflowPause:     WorkflowPaused,
		WorkflowStartStop: WorkflowStopping,
	},
	WorkflowPaused: {
		WorkflowResume:    WorkflowRunning,
		WorkflowStartStop: WorkflowStopping,
	},
	WorkflowCompleted: {
		WorkflowStartRun:  WorkflowRunning,
		WorkflowStartStop: WorkflowStopping,
	},
	WorkflowStopping: {WorkflowFinishStop: WorkflowStopped},
}

// NewWorkflowMachine builds the strategy lifecycle state machine.
func NewWorkflowMachine() *Machine[WorkflowState, WorkflowTrigger] {
	return New(WorkflowChecking, workflowTransition, "STRATEGY")
}

func workflowTransition(current WorkflowState, t WorkflowTrigger) (WorkflowState, []Action, error) {
	if t.Kind == WorkflowEncounterErr {
		if current == WorkflowStopped || current == WorkflowFailed {
			return current, nil, fmt.Errorf("cannot encounter error from terminal state %s", current)
		}
		return WorkflowFailed, nil, nil
	}

	if current == WorkflowStopped || current == WorkflowFailed {
		return current, nil, fmt.Errorf("no transitions out of terminal state %s", current)
	}

	next, ok := workflowTransitions[current][t.Kind]
	if !ok {
		return current, nil, fmt.Errorf("illegal trigger %s in state %s", t.Kind, current)
	}
	return next, nil, nil
}
