package bus

import (
	"testing"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"go.uber.org/zap"
)

func TestHandleRegistryDefaultHandle(t *testing.T) {
	r := NewHandleRegistry(zap.NewNop(), types.NodeId("n1"))
	if r.HasDefault() {
		t.Fatal("fresh registry should have no default handle")
	}
	r.Register(types.DefaultHandleId)
	if !r.HasDefault() {
		t.Fatal("expected default handle after Register")
	}
	if _, err := r.Default(); err != nil {
		t.Fatalf("Default() returned error: %v", err)
	}
}

func TestHandleRegistryUnknownHandle(t *testing.T) {
	r := NewHandleRegistry(zap.NewNop(), types.NodeId("n1"))
	_, err := r.Handle(types.HandleId("missing"))
	if !apperrors.Is(err, apperrors.CodeNodeHandleNotFound) {
		t.Fatalf("expected CodeNodeHandleNotFound, got %v", err)
	}
}

func TestHandleRegistryDuplicateRegisterPanics(t *testing.T) {
	r := NewHandleRegistry(zap.NewNop(), types.NodeId("n1"))
	r.Register(types.HandleId("h"))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate handle registration")
		}
	}()
	r.Register(types.HandleId("h"))
}

func TestEdgeSetRejectsDuplicateEdge(t *testing.T) {
	s := NewEdgeSet()
	e := types.EdgeConfig{
		FromNode: "a", FromHandle: "out",
		ToNode: "b", ToHandle: "in",
	}
	if err := s.Add(e); err != nil {
		t.Fatalf("first Add should succeed, got %v", err)
	}
	err := s.Add(e)
	if !apperrors.Is(err, apperrors.CodeStrategyInvalidConfig) {
		t.Fatalf("expected CodeStrategyInvalidConfig on duplicate edge, got %v", err)
	}
}
