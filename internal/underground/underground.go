// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package underground implements the last-resort bot channel. The adapter
// rides a stateful interactive session that is not safe for concurrent use,
// so a single mutex spans the entire remote interaction, and a sliding
// one-hour window caps how many requests go through at all.
package underground

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pdiddy/paper-finder/internal/validate"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// Session is the bot transport: send a document query, await the reply, and
// download the attached file into destDir. Implementations block until the
// document arrives, the context is cancelled, or the exchange fails; the
// returned path is the downloaded file.
//
// The adapter guarantees at most one Exchange is in flight globally.
type Session interface {
	Exchange(ctx context.Context, query, destDir string) (string, error)
}

// Adapter is the underground tier member. It satisfies the same contract as
// the regular source adapters but is scheduled on its own, strictly after
// every other tier is exhausted.
type Adapter struct {
	cfg       types.UndergroundConfig
	session   Session
	validator *validate.Validator

	// sessionMu spans the whole remote interaction: send, poll, download.
	sessionMu sync.Mutex

	// windowMu guards the sliding rate-limit window.
	windowMu sync.Mutex
	window   []time.Time

	now func() time.Time
}

// New builds the adapter. A nil session leaves the adapter permanently
// not-configured.
func New(cfg types.UndergroundConfig, session Session, v *validate.Validator) *Adapter {
	if cfg.RequestsPerHour == 0 {
		cfg.RequestsPerHour = 20
	}
	return &Adapter{cfg: cfg, session: session, validator: v, now: time.Now}
}

func (a *Adapter) Name() string { return "underground" }
func (a *Adapter) Tier() string { return "underground" }

// Supports reports whether the bot channel can be queried for this identity.
func (a *Adapter) Supports(id types.Identity) bool {
	return id.Type == types.TypeDOI || id.Type == types.TypeISBN
}

// TryAcquire runs one serialized bot exchange. Ordering of the gates
// matters: configuration and the rate limit are checked before any lock or
// network activity, and a busy session is reported as its own class so the
// caller knows a retry will help.
func (a *Adapter) TryAcquire(ctx context.Context, id types.Identity, meta types.Metadata, destDir string) types.AcquisitionResult {
	if !a.cfg.Enabled || a.cfg.APIID == "" || a.cfg.APIHash == "" || a.session == nil {
		return types.ClassFailure(a.Name(), types.FailNotConfigured, id, meta)
	}

	if !a.admit() {
		return types.ClassFailure(a.Name(), types.FailRateLimited, id, meta)
	}

	if !a.sessionMu.TryLock() {
		return types.ClassFailure(a.Name(), types.FailSessionLocked, id, meta)
	}
	defer a.sessionMu.Unlock()

	exchangeCtx := ctx
	if a.cfg.ResponseWait > 0 {
		var cancel context.CancelFunc
		exchangeCtx, cancel = context.WithTimeout(ctx, a.cfg.ResponseWait)
		defer cancel()
	}

	path, err := a.session.Exchange(exchangeCtx, id.Normalized, destDir)
	if err != nil {
		return types.FailureResult(a.Name(), string(types.FailDownload)+": "+err.Error(), id, meta)
	}

	if err := a.validator.Accept(path, id, meta, validate.TrustAddressable); err != nil {
		os.Remove(path)
		return types.FailureResult(a.Name(), string(types.FailValidation)+": "+err.Error(), id, meta)
	}
	return types.SuccessResult(a.Name(), path, id, meta)
}

// admit applies the sliding one-hour window. Stale timestamps are pruned
// lazily on each check; an admitted attempt is recorded immediately, so a
// failed exchange still consumes budget.
func (a *Adapter) admit() bool {
	a.windowMu.Lock()
	defer a.windowMu.Unlock()

	now := a.now()
	cutoff := now.Add(-time.Hour)

	kept := a.window[:0]
	for _, t := range a.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	a.window = kept

	if len(a.window) >= a.cfg.RequestsPerHour {
		return false
	}
	a.window = append(a.window, now)
	return true
}

// Remaining reports how many attempts the window still permits.
func (a *Adapter) Remaining() int {
	a.windowMu.Lock()
	defer a.windowMu.Unlock()

	cutoff := a.now().Add(-time.Hour)
	n := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			n++
		}
	}
	if n >= a.cfg.RequestsPerHour {
		return 0
	}
	return a.cfg.RequestsPerHour - n
}
