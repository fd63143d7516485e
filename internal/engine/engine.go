// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs acquisition thunks in ordered tiers: tiers execute
// strictly sequentially, members of one tier run concurrently on a bounded
// worker pool, and the first successful member wins the whole run.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Thunk is one bound acquisition attempt. Implementations must honor ctx
// cancellation on a best-effort basis and must never panic across this
// boundary; failures are expressed in the returned result, not as errors.
type Thunk func(ctx context.Context) types.AcquisitionResult

// Method pairs a source name with its bound thunk. Order within a tier is
// advisory: it controls submission order only, never finish-time ties.
type Method struct {
	Name string
	Run  Thunk
}

// Tier is a named group of methods executed under one concurrency and
// timeout policy.
type Tier struct {
	Name    string
	Methods []Method
}

// Winner describes the first validated success of a run.
type Winner struct {
	Tier   string
	Method string
	Result types.AcquisitionResult
}

// Engine executes tiers with a bounded worker pool.
type Engine struct {
	workers     int
	tierTimeout time.Duration
}

// New builds an Engine. Zero values fall back to 3 workers and a 60s tier
// timeout.
func New(cfg types.EngineConfig) *Engine {
	e := &Engine{workers: cfg.Workers, tierTimeout: cfg.TierTimeout}
	if e.workers <= 0 {
		e.workers = 3
	}
	if e.tierTimeout <= 0 {
		e.tierTimeout = 60 * time.Second
	}
	return e
}

// Run executes the tiers in order and returns the first success, or nil when
// every tier is exhausted. attempts collects each method's outcome string
// across all tiers that actually ran; methods abandoned by an early success
// or a tier timeout are recorded as such.
func (e *Engine) Run(ctx context.Context, tiers []Tier) (*Winner, map[string]string) {
	attempts := make(map[string]string)

	for _, tier := range tiers {
		if len(tier.Methods) == 0 {
			continue
		}
		if ctx.Err() != nil {
			return nil, attempts
		}

		if winner := e.runTier(ctx, tier, attempts); winner != nil {
			return winner, attempts
		}
	}
	return nil, attempts
}

// outcome carries one method's completion back to the collector.
type outcome struct {
	method string
	result types.AcquisitionResult
}

// runTier submits every member of the tier to the pool and waits for the
// first success, full exhaustion, or the tier timeout. On success remaining
// members are context-cancelled and not awaited further; the validator and
// single-destination discipline downstream make late writes harmless.
func (e *Engine) runTier(ctx context.Context, tier Tier, attempts map[string]string) *Winner {
	tierCtx, cancel := context.WithTimeout(ctx, e.tierTimeout)
	defer cancel()

	results := make(chan outcome, len(tier.Methods))
	work := make(chan Method, len(tier.Methods))
	for _, m := range tier.Methods {
		work <- m
	}
	close(work)

	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(tier.Methods) {
		workers = len(tier.Methods)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range work {
				if tierCtx.Err() != nil {
					results <- outcome{method: m.Name, result: types.AcquisitionResult{Success: false, Error: "abandoned"}}
					continue
				}
				results <- outcome{method: m.Name, result: m.Run(tierCtx)}
			}
		}()
	}

	pending := len(tier.Methods)
	for pending > 0 {
		select {
		case out := <-results:
			pending--
			if out.result.Success {
				attempts[out.method] = "success"
				cancel()
				markAbandoned(tier, attempts)
				return &Winner{Tier: tier.Name, Method: out.method, Result: out.result}
			}
			msg := out.result.Error
			if msg == "" {
				msg = "failed"
			}
			attempts[out.method] = "failed: " + msg

		case <-tierCtx.Done():
			// Tier timeout or caller cancellation: abandon whatever
			// is still in flight and advance.
			markAbandoned(tier, attempts)
			go func() {
				// Drain stragglers so workers can exit.
				for i := 0; i < pending; i++ {
					<-results
				}
				wg.Wait()
			}()
			return nil
		}
	}

	wg.Wait()
	return nil
}

// markAbandoned records an outcome for tier members that never reported.
func markAbandoned(tier Tier, attempts map[string]string) {
	for _, m := range tier.Methods {
		if _, ok := attempts[m.Name]; !ok {
			attempts[m.Name] = "abandoned: tier resolved before completion"
		}
	}
}
