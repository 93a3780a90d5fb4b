package sheet

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WriteStrategy decides how a remote write relates to the local mutation
// that triggered it. The strategy is injected at the call sites so the
// policy can be swapped or faked without touching them.
type WriteStrategy interface {
	// Write runs op. Whether the error reaches the caller depends on the
	// strategy.
	Write(ctx context.Context, name string, op func(context.Context) error) error
	// Confirms reports whether a nil Write means the remote accepted the
	// write. Refresh-after-write only makes sense when it does.
	Confirms() bool
}

// Optimistic is the fire-and-forget policy: the write runs in the
// background on its own deadline, failures are logged and never surfaced.
// Local and remote state can diverge silently until the next cache refresh.
type Optimistic struct {
	Log     *zap.Logger
	Timeout time.Duration
	// Done, when set, is signalled after each background write settles.
	// Tests use it to wait for the write to land.
	Done chan error
}

// Write launches op in the background and reports success immediately. The
// op gets a fresh context so an already-finished request cannot cancel it.
func (o *Optimistic) Write(_ context.Context, name string, op func(context.Context) error) error {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := op(ctx)
		if err != nil {
			o.Log.Error("remote write failed", zap.String("op", name), zap.Error(err))
		}
		if o.Done != nil {
			o.Done <- err
		}
	}()
	return nil
}

func (o *Optimistic) Confirms() bool { return false }

// Confirmed awaits the remote result and hands any failure back to the
// caller, trading responsiveness for read-after-write on the remote.
type Confirmed struct{}

func (Confirmed) Write(ctx context.Context, _ string, op func(context.Context) error) error {
	return op(ctx)
}

func (Confirmed) Confirms() bool { return true }
