// Package signals keeps asynchronous hangup, interrupt and resize signals
// from observing the editor mid-update.
//
// A Coordinator owns a nesting counter (the gate). While the gate is held,
// hangup and interrupt only set a pending flag; the effect is replayed by the
// Leave call that brings the depth back to zero, hangup first.
package signals

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ExitSignal is the exit status used when a hangup terminates the process.
const ExitSignal = 2

// ErrInterrupt is returned by Leave and by cancelled operations when the
// user interrupted the current command.
var ErrInterrupt = errors.New("interrupt")

// Content is the editor state saved on hangup.
type Content interface {
	HasContent() bool
	WriteContent(path string) error
}

// Coordinator is the process-wide gate, pending-signal bookkeeping,
// recovery point and terminal geometry.
type Coordinator struct {
	mu    sync.Mutex
	depth int

	hupPending bool
	intPending bool

	rp recoveryPoint

	geo  geometry
	size func() (rows, cols int, err error)
	tty  func() bool

	content Content
	exit    func(code int)
	getenv  func(key string) (string, bool)
	log     *logrus.Logger

	once  sync.Once
	sigch chan os.Signal
	done  chan struct{}
}

type Option func(*Coordinator)

// WithContent sets the content saved by a hangup.
func WithContent(c Content) Option {
	return func(co *Coordinator) { co.content = c }
}

// WithExit replaces os.Exit.
func WithExit(exit func(int)) Option {
	return func(co *Coordinator) { co.exit = exit }
}

// WithLogger sets the logger used for signal tracing.
func WithLogger(l *logrus.Logger) Option {
	return func(co *Coordinator) { co.log = l }
}

// WithSizeFunc replaces the terminal size query.
func WithSizeFunc(f func() (rows, cols int, err error)) Option {
	return func(co *Coordinator) { co.size = f }
}

// WithTerminalFunc replaces the check for an interactive stdin.
func WithTerminalFunc(f func() bool) Option {
	return func(co *Coordinator) { co.tty = f }
}

// WithGetenv replaces os.LookupEnv for the hangup fallback path.
func WithGetenv(f func(string) (string, bool)) Option {
	return func(co *Coordinator) { co.getenv = f }
}

// New returns a Coordinator with an open gate, no pending signals and the
// default 22x72 geometry.
func New(opts ...Option) *Coordinator {
	co := &Coordinator{
		size:   terminalSize,
		tty:    stdinIsTerminal,
		exit:   os.Exit,
		getenv: os.LookupEnv,
		log:    logrus.StandardLogger(),
	}
	co.geo.reset()
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// SetContent sets the content saved by a hangup. The editor and the
// coordinator refer to each other, so one side is wired after construction.
func (co *Coordinator) SetContent(c Content) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.content = c
}

// Enter holds the gate. Calls nest.
func (co *Coordinator) Enter() {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.depth++
}

// Leave releases one level of the gate. When the depth reaches zero any
// pending hangup is applied, then any pending interrupt. A replayed
// interrupt returns ErrInterrupt, which the caller must pass up to the
// command loop. Unmatched calls leave the depth at zero.
func (co *Coordinator) Leave() error {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.depth--
	if co.depth > 0 {
		return nil
	}
	co.depth = 0
	if co.hupPending {
		co.log.Debug("replaying deferred hangup")
		co.hangupLocked()
	}
	if co.intPending {
		co.log.Debug("replaying deferred interrupt")
		co.interruptLocked()
		return ErrInterrupt
	}
	return nil
}

// Depth returns the current gate depth.
func (co *Coordinator) Depth() int {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.depth
}

// Pending reports which signals are waiting for the gate to open.
func (co *Coordinator) Pending() (hangup, interrupt bool) {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.hupPending, co.intPending
}

// Hangup is the SIGHUP handler. With the gate held it only records the
// signal. Otherwise it saves the buffer and exits with ExitSignal.
func (co *Coordinator) Hangup() {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.depth > 0 {
		co.log.Debug("hangup deferred")
		co.hupPending = true
		return
	}
	co.hangupLocked()
}

func (co *Coordinator) hangupLocked() {
	co.hupPending = false
	co.persist()
	co.exit(ExitSignal)
}

// Interrupt is the SIGINT handler. With the gate held it only records the
// signal. Otherwise it aborts the current command by cancelling the armed
// recovery point.
func (co *Coordinator) Interrupt() {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.depth > 0 {
		co.log.Debug("interrupt deferred")
		co.intPending = true
		return
	}
	co.interruptLocked()
}

func (co *Coordinator) interruptLocked() {
	co.intPending = false
	if !co.rp.transfer() {
		co.log.Debug("interrupt before the command loop was armed")
	}
}

// Arm establishes the recovery point for one pass of the command loop.
// The returned context is cancelled with cause ErrInterrupt when the user
// interrupts the pass. The discriminator is Interrupted if the previous
// pass ended that way and Armed otherwise.
func (co *Coordinator) Arm(parent context.Context) (context.Context, int) {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.rp.arm(parent)
}
