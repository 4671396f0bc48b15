// Package forms drives the two submission flows: the DCF form that asks for a
// forecast and the loss form that turns the loss tables into a PDF report.
package forms

import (
	"context"
	"errors"
	"sync"

	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
)

// ErrSubmissionInProgress is returned by a submit that arrives while another
// one is still waiting for the service.
var ErrSubmissionInProgress = errors.New("submission already in progress")

// guard lets one submission through at a time and can abort it.
type guard struct {
	mu     sync.Mutex
	busy   bool
	cancel context.CancelFunc
}

func (g *guard) begin(ctx context.Context) (context.Context, func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return nil, nil, i18n.Errorf(ErrSubmissionInProgress, i18n.KeyBusy)
	}
	ctx, cancel := context.WithCancel(ctx)
	g.busy = true
	g.cancel = cancel
	end := func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		cancel()
		g.busy = false
		g.cancel = nil
	}
	return ctx, end, nil
}

// InFlight reports whether a submission is outstanding.
func (g *guard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Cancel aborts the outstanding submission, if any.
func (g *guard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
}
