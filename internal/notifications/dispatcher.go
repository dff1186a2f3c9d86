package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/logger"
)

const (
	paintAddedTitle = "🎨 New Paint Added"
	paintAddedBody  = "Check out the latest color combinations!"
	finalizedTitle  = "🎨 Your Paint Submission Is Finalized!"

	dispatchTimeout = time.Minute
)

// Dispatcher sends best-effort notifications in the background so callers
// never wait on, or fail because of, push delivery.
type Dispatcher struct {
	svc  Service
	logg *logger.Logger
	wg   sync.WaitGroup
}

func NewDispatcher(svc Service, logg *logger.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, logg: logg}
}

// PaintAdded tells every registered device that a user added a paint.
func (d *Dispatcher) PaintAdded(ctx context.Context, userID string) {
	d.dispatch(ctx, "paint_added", func(ctx context.Context) error {
		_, err := d.svc.NotifyAll(ctx, paintAddedTitle, paintAddedBody)
		return err
	})
}

// SubmissionFinalized tells the submitter, or everyone when broadcast is
// set, that a submission became a catalog paint.
func (d *Dispatcher) SubmissionFinalized(ctx context.Context, submitterID, label, brandID, hex string, broadcast bool) {
	body := fmt.Sprintf("Your submission %q for brand %q (hex: %s) has been finalized.", label, brandID, hex)
	d.dispatch(ctx, "submission_finalized", func(ctx context.Context) error {
		if broadcast {
			_, err := d.svc.NotifyAll(ctx, finalizedTitle, body)
			return err
		}
		if submitterID == "" {
			return nil
		}
		_, err := d.svc.NotifyUser(ctx, submitterID, finalizedTitle, body)
		return err
	})
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	if d == nil || d.svc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := fn(ctx); err != nil && d.logg != nil {
			d.logg.Warn(d.logg.WithFields(ctx, map[string]any{"kind": kind, "error": err.Error()}), "notification dispatch failed")
		}
	}()
}
