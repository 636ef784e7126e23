//go:build !unix

package signals

import (
	"os"
	"os/signal"

	"github.com/pkg/errors"
)

// Install delivers interrupts to the coordinator. Hangup and resize have
// no equivalent on this platform.
func (co *Coordinator) Install() error {
	co.once.Do(func() {
		co.sigch = make(chan os.Signal, 4)
		co.done = make(chan struct{})
		signal.Notify(co.sigch, os.Interrupt)
		go co.dispatch()
	})
	return nil
}

// Handle runs the handler for sig.
func (co *Coordinator) Handle(sig os.Signal) {
	if sig == os.Interrupt {
		co.Interrupt()
	}
}

func terminalSize() (int, int, error) {
	return 0, 0, errors.New("terminal size unavailable")
}

func stdinIsTerminal() bool { return false }
