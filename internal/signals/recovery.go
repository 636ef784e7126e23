package signals

import "context"

// Discriminators returned by Arm.
const (
	Armed       = 0
	Interrupted = -1
)

// recoveryPoint is the top of the command loop. Only the most recently
// armed point exists; transferring to it cancels its context.
type recoveryPoint struct {
	cancel  context.CancelCauseFunc
	resumed bool
}

func (rp *recoveryPoint) arm(parent context.Context) (context.Context, int) {
	if rp.cancel != nil {
		rp.cancel(context.Canceled)
	}
	ctx, cancel := context.WithCancelCause(parent)
	rp.cancel = cancel
	how := Armed
	if rp.resumed {
		how = Interrupted
		rp.resumed = false
	}
	return ctx, how
}

// transfer aborts the armed pass. It reports false when nothing was armed.
func (rp *recoveryPoint) transfer() bool {
	if rp.cancel == nil {
		return false
	}
	rp.cancel(ErrInterrupt)
	rp.resumed = true
	return true
}
