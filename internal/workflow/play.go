package workflow

import (
	"context"
	"time"

	"github.com/atlas-desktop/backtest-workflow-engine/internal/apperrors"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/benchmark"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/statemachine"
	"github.com/atlas-desktop/backtest-workflow-engine/internal/vts"
	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"go.uber.org/zap"
)

// Play starts every node, the VTS engine, and the command router, then
// drives the play loop on its own goroutine until the configured
// EndTime or ctx cancellation, whichever comes first. Play returns
// once the runtime has entered Running; the play loop itself runs in
// the background.
func (r *Runtime) Play(ctx context.Context) error {
	if _, err := r.sm.Trigger(statemachine.WorkflowTrigger{Kind: statemachine.WorkflowStartInit}); err != nil {
		return err
	}
	if _, err := r.sm.Trigger(statemachine.WorkflowTrigger{Kind: statemachine.WorkflowStartInit}); err != nil {
		return err
	}
	if _, err := r.sm.Trigger(statemachine.WorkflowTrigger{Kind: statemachine.WorkflowFinishInit}); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.commandLoop(runCtx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.vtsEngine.Run(runCtx)
	}()

	for _, id := range r.order {
		if err := r.nodes[id].Run(runCtx); err != nil {
			return err
		}
	}

	if _, err := r.sm.Trigger(statemachine.WorkflowTrigger{Kind: statemachine.WorkflowStartRun}); err != nil {
		return err
	}

	r.wg.Add(1)
	go r.playLoop(runCtx)

	return nil
}

// playLoop advances PlayIndex at MinInterval cadence (scaled by
// PlaySpeed), waiting on a completion barrier each cycle before
// advancing CycleID, per §4.F.
func (r *Runtime) playLoop(ctx context.Context) {
	defer r.wg.Done()

	interval := r.cfg.MinInterval
	if !r.cfg.PlaySpeed.IsZero() {
		scaled := float64(interval) / r.cfg.PlaySpeed.InexactFloat64()
		interval = time.Duration(scaled)
	}
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current, _ := r.playIndexWatch.Value()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.sm.CurrentState() == statemachine.WorkflowPaused {
				continue
			}
			now, _ := r.currentTimeWatch.Value()
			now = now.Add(r.cfg.MinInterval)
			if now.After(r.cfg.EndTime) {
				r.sm.Trigger(statemachine.WorkflowTrigger{Kind: statemachine.WorkflowFinishRun})
				return
			}

			current++
			r.playIndexWatch.Set(current)
			r.currentTimeWatch.Set(now)

			if err := r.runOneCycle(ctx, current, now); err != nil {
				r.logger.Error("cycle failed", zap.Error(err))
				r.sm.Trigger(statemachine.WorkflowTrigger{Kind: statemachine.WorkflowEncounterErr})
				return
			}
		}
	}
}

func (r *Runtime) runOneCycle(ctx context.Context, playIndex types.PlayIndex, now time.Time) error {
	r.mu.Lock()
	r.cycleID++
	cycleID := r.cycleID
	active := make([]types.NodeId, 0, len(r.order))
	active = append(active, r.order...)
	r.mu.Unlock()

	barrier := benchmark.NewBarrier(cycleID, now, active)
	for _, id := range r.order {
		rt := r.runtimes[id]
		rt.SetOnComplete(barrier.Report)
		rt.AdvanceCycle(playIndex, cycleID, now)
	}

	select {
	case <-barrier.Done():
	case <-time.After(BarrierTimeout):
		return apperrors.NewStrategyError(apperrors.CodeStrategyCycleTimeout,
			"cycle barrier timed out waiting for node completion",
			"等待节点完成周期屏障超时",
		)
	case <-ctx.Done():
		return ctx.Err()
	}

	report := barrier.Complete(time.Now())
	r.cycleWatch.Set(cycleID)

	if _, err := r.vtsEngine.Submit(ctx, vts.Request{Kind: vts.ReqTick}); err != nil {
		return err
	}

	if report.AnyFailed() {
		r.logger.Warn("cycle completed with a failing node", zap.Uint64("cycle_id", uint64(cycleID)))
	}
	return nil
}

// Pause moves Running -> Paused; the play loop's own ticker keeps
// running but runOneCycle is skipped (§4.F: Pause suspends advancement,
// not the goroutines).
func (r *Runtime) Pause() error {
	_, err := r.sm.Trigger(statemachine.WorkflowTrigger{Kind: statemachine.WorkflowPause})
	return err
}

// Resume moves Paused -> Running.
func (r *Runtime) Resume() error {
	_, err := r.sm.Trigger(statemachine.WorkflowTrigger{Kind: statemachine.WorkflowResume})
	return err
}

// PlayOneStep advances exactly one cycle synchronously, for
// deterministic single-step testing and replay. The caller must not
// also have a running playLoop goroutine.
func (r *Runtime) PlayOneStep(ctx context.Context) error {
	current, _ := r.playIndexWatch.Value()
	now, _ := r.currentTimeWatch.Value()
	now = now.Add(r.cfg.MinInterval)
	current++
	r.playIndexWatch.Set(current)
	r.currentTimeWatch.Set(now)
	return r.runOneCycle(ctx, current, now)
}

// Reset stops every node and the VTS engine, then rebuilds state back
// to PlayIndex 0, CycleID 0, and the configured initial balance. Edges
// and node wiring are left intact.
func (r *Runtime) Reset(ctx context.Context) error {
	r.Stop()

	r.mu.Lock()
	r.cycleID = 0
	r.mu.Unlock()

	r.playIndexWatch.Set(0)
	r.currentTimeWatch.Set(r.cfg.StartTime)
	r.cycleWatch.Set(0)

	for _, id := range r.order {
		r.runtimes[id].Reset()
	}
	// Stop has ended the engine's command loop; run it just long enough
	// to serve the reset request.
	engineCtx, stopEngine := context.WithCancel(ctx)
	go r.vtsEngine.Run(engineCtx)
	_, err := r.vtsEngine.Submit(engineCtx, vts.Request{Kind: vts.ReqReset})
	stopEngine()
	if err != nil {
		return err
	}

	r.sm = statemachine.NewWorkflowMachine()
	return nil
}

// Stop cancels every node and the play loop, waiting for all
// goroutines to exit.
func (r *Runtime) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	for _, id := range r.order {
		r.nodes[id].Stop()
	}
	r.wg.Wait()
}

// GetPerformanceReport returns a snapshot of the VTS account state, the
// external surface named in §6 (no HTTP transport in this module).
func (r *Runtime) GetPerformanceReport(ctx context.Context) (types.AccountState, error) {
	resp, err := r.vtsEngine.Submit(ctx, vts.Request{Kind: vts.ReqSnapshot})
	if err != nil {
		return types.AccountState{}, err
	}
	return resp.Account, nil
}

// SubscribeEvents returns the VTS's raw event stream, the other half
// of §6's subscribe_events surface (node TriggerEvents are subscribed
// to per-handle via bus.OutputHandle.Subscribe instead).
func (r *Runtime) SubscribeEvents() <-chan vts.Event {
	return r.vtsEngine.Events().Subscribe()
}
