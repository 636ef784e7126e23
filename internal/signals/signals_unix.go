//go:build unix

package signals

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Install refreshes the terminal geometry and starts delivering hangup,
// interrupt and, when stdin is a terminal, resize signals to the
// coordinator. Quit is ignored. The runtime installs its handlers with
// SA_RESTART, so blocking reads elsewhere are not aborted. Only the first
// call has any effect.
func (co *Coordinator) Install() error {
	co.once.Do(func() {
		co.Resize()
		co.sigch = make(chan os.Signal, 4)
		co.done = make(chan struct{})
		if co.tty() {
			signal.Notify(co.sigch, unix.SIGWINCH)
		}
		signal.Notify(co.sigch, unix.SIGHUP, unix.SIGINT)
		signal.Ignore(unix.SIGQUIT)
		go co.dispatch()
	})
	return nil
}

// Handle runs the handler for sig.
func (co *Coordinator) Handle(sig os.Signal) {
	co.log.WithField("signal", sig).Debug("signal received")
	switch sig {
	case unix.SIGHUP:
		co.Hangup()
	case unix.SIGINT:
		co.Interrupt()
	case unix.SIGWINCH:
		co.Resize()
	case unix.SIGQUIT:
		// ignore
	}
}

func terminalSize() (int, int, error) {
	ws, err := unix.IoctlGetWinsize(0, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Row), int(ws.Col), nil
}

func stdinIsTerminal() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
