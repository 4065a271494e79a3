package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/bus"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/fabric"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/node/catalog"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/statemachine"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/vts"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BarrierTimeout is the default wait for a cycle barrier to close
// before raising STRATEGY_1005.
const BarrierTimeout = 30 * time.Second

// Runtime is the strategy runtime: builds the node DAG from
// StrategyConfig, drives the play loop, and serializes every
// cross-node command on a single goroutine. Grounded on
// internal/backtester/engine.go's Engine, restructured per §4.F.
type Runtime struct {
	logger *zap.Logger
	cfg    types.StrategyConfig

	sm  *statemachine.Machine[statemachine.WorkflowState, statemachine.WorkflowTrigger]
	mu  sync.RWMutex

	nodes    map[types.NodeId]node.Node
	runtimes map[types.NodeId]*node.Runtime
	order    []types.NodeId

	vtsEngine *vts.Engine
	variables *variableStore
	klines    KlineSource

	promRegistry *prometheus.Registry

	playIndexWatch   *bus.Watch[types.PlayIndex]
	currentTimeWatch *bus.Watch[time.Time]
	cycleWatch       *bus.Watch[types.CycleId]
	cycleID          types.CycleId

	commands chan *fabric.Command[request, response]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a strategy runtime from cfg, constructing and wiring
// every node but not yet starting it (call Play to enter Running).
func New(logger *zap.Logger, cfg types.StrategyConfig, klines KlineSource, promRegistry *prometheus.Registry) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewStrategyError(apperrors.CodeStrategyInvalidConfig, err.Error(), err.Error())
	}

	order, err := buildOrder(cfg.Nodes, cfg.Edges)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		logger:           logger,
		cfg:              cfg,
		sm:               statemachine.NewWorkflowMachine(),
		nodes:            make(map[types.NodeId]node.Node, len(cfg.Nodes)),
		runtimes:         make(map[types.NodeId]*node.Runtime, len(cfg.Nodes)),
		order:            order,
		vtsEngine:        vts.NewEngine(logger, cfg.InitialBalance, cfg.Leverage, cfg.FeeRate),
		variables:        newVariableStore(cfg.CustomVariables),
		klines:           klines,
		promRegistry:     promRegistry,
		playIndexWatch:   bus.NewWatch[types.PlayIndex](0),
		currentTimeWatch: bus.NewWatch(cfg.StartTime),
		cycleWatch:       bus.NewWatch[types.CycleId](0),
		commands:         make(chan *fabric.Command[request, response], bus.DefaultCapacity),
	}

	byID := make(map[types.NodeId]types.NodeConfig, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		byID[n.ID] = n
	}

	edgeSet := bus.NewEdgeSet()
	for _, e := range cfg.Edges {
		if err := edgeSet.Add(e); err != nil {
			return nil, err
		}
	}

	initCtx := context.Background()
	for _, id := range order {
		built, rt, err := r.buildNode(logger, byID[id])
		if err != nil {
			return nil, apperrors.NewStrategyError(apperrors.CodeStrategyInvalidConfig, err.Error(), err.Error())
		}
		// Init runs here, in topological order, so every node has
		// registered its output handles before edges are wired below:
		// wiring reads a handle that must already exist.
		if err := built.Init(initCtx); err != nil {
			return nil, err
		}
		r.nodes[id] = built
		r.runtimes[id] = rt
	}

	for _, e := range cfg.Edges {
		upstream, err := r.runtimes[e.FromNode].Handles.Handle(e.FromHandle)
		if err != nil {
			return nil, err
		}
		r.runtimes[e.ToNode].SubscribeInput(e.ToHandle, upstream)
	}

	return r, nil
}

var _ catalog.StrategyServices = (*Runtime)(nil)
