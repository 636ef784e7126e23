package signals

import "os/signal"

func (co *Coordinator) dispatch() {
	defer close(co.done)
	for sig := range co.sigch {
		co.Handle(sig)
	}
}

// Stop unregisters the handlers installed by Install and waits for the
// dispatcher to drain.
func (co *Coordinator) Stop() {
	if co.sigch == nil {
		return
	}
	signal.Stop(co.sigch)
	close(co.sigch)
	<-co.done
	co.sigch = nil
}
