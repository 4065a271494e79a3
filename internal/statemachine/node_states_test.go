package statemachine

import "testing"

func TestNodeMachineHappyPath(t *testing.T) {
	m := NewNodeMachine()

	steps := []NodeTriggerKind{
		NodeStartInit, // Checking -> Created
		NodeStartInit, // Created -> Initializing
		NodeFinishInit,
		NodeStartRun,
		NodeFinishRun,
	}
	want := []NodeState{NodeCreated, NodeInitializing, NodeReady, NodeRunning, NodeCompleted}

	for i, kind := range steps {
		if _, err := m.Trigger(NodeTrigger{Kind: kind}); err != nil {
			t.Fatalf("step %d (%s): unexpected error: %v", i, kind, err)
		}
		if got := m.CurrentState(); got != want[i] {
			t.Fatalf("step %d (%s): state = %s, want %s", i, kind, got, want[i])
		}
	}
}

func TestNodeMachineRejectsIllegalTrigger(t *testing.T) {
	m := NewNodeMachine()
	if _, err := m.Trigger(NodeTrigger{Kind: NodeFinishRun}); err == nil {
		t.Fatal("expected error triggering FinishRun from Checking")
	}
}

func TestNodeMachineEncounterErrorFromRunning(t *testing.T) {
	m := NewNodeMachine()
	for _, kind := range []NodeTriggerKind{NodeStartInit, NodeStartInit, NodeFinishInit, NodeStartRun} {
		if _, err := m.Trigger(NodeTrigger{Kind: kind}); err != nil {
			t.Fatalf("setup step %s failed: %v", kind, err)
		}
	}

	if _, err := m.Trigger(NodeTrigger{Kind: NodeEncounterErr, Code: "NODE_9999"}); err != nil {
		t.Fatalf("unexpected error entering Failed: %v", err)
	}
	if got := m.CurrentState(); got != NodeFailed {
		t.Fatalf("state = %s, want %s", got, NodeFailed)
	}

	if _, err := m.Trigger(NodeTrigger{Kind: NodeStartRun}); err == nil {
		t.Fatal("expected error: Failed is terminal")
	}
}

func TestNodeMachineCompletedCanRerun(t *testing.T) {
	m := NewNodeMachine()
	for _, kind := range []NodeTriggerKind{NodeStartInit, NodeStartInit, NodeFinishInit, NodeStartRun, NodeFinishRun} {
		if _, err := m.Trigger(NodeTrigger{Kind: kind}); err != nil {
			t.Fatalf("setup step %s failed: %v", kind, err)
		}
	}
	if _, err := m.Trigger(NodeTrigger{Kind: NodeStartRun}); err != nil {
		t.Fatalf("expected Completed -> Running to be legal, got %v", err)
	}
	if got := m.CurrentState(); got != NodeRunning {
		t.Fatalf("state = %s, want %s", got, NodeRunning)
	}
}
