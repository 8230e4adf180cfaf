package combat

import (
	"context"
	"sync"
	"time"
)

// Pacer runs the enemy phase after a display delay so a frontend can render
// the player's action first. It is safe for concurrent use.
type Pacer struct {
	engine *Engine
	delay  time.Duration
	onStep func(Step)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// NewPacer creates a Pacer over engine.
//
// Precondition: engine must not be nil; onStep may be nil.
// Postcondition: a zero or negative delay runs the enemy phase inline.
func NewPacer(engine *Engine, delay time.Duration, onStep func(Step)) *Pacer {
	if onStep == nil {
		onStep = func(Step) {}
	}
	return &Pacer{engine: engine, delay: delay, onStep: onStep}
}

// Act forwards a to the engine and, when the action handed the turn to the
// enemies, schedules Advance.
//
// Postcondition: the returned ActionResult is exactly what Engine.Act returned.
func (p *Pacer) Act(ctx context.Context, a Action) ActionResult {
	res := p.engine.Act(ctx, a)
	if !res.TurnEnded || res.Outcome != nil {
		return res
	}
	p.schedule(ctx)
	return res
}

func (p *Pacer) schedule(ctx context.Context) {
	fire := func() {
		p.onStep(p.engine.Advance(ctx))
	}
	if p.delay <= 0 {
		fire()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if p.timer != nil && p.timer.Stop() {
		p.wg.Done()
	}
	p.wg.Add(1)
	p.timer = time.AfterFunc(p.delay, func() {
		defer p.wg.Done()
		p.mu.Lock()
		stopped := p.stopped
		p.mu.Unlock()
		if stopped || ctx.Err() != nil {
			return
		}
		fire()
	})
}

// Wait blocks until every scheduled enemy phase has run or been cancelled.
func (p *Pacer) Wait() {
	p.wg.Wait()
}

// Stop cancels any pending enemy phase. Safe to call multiple times.
//
// Postcondition: no scheduled Advance starts after Stop returns.
func (p *Pacer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil && p.timer.Stop() {
		p.wg.Done()
	}
}
