package refresh

// flightGuard admits one refresh job at a time and turns others away
type flightGuard chan struct{}

func newFlightGuard() flightGuard {
	return make(flightGuard, 1)
}

// enter claims the slot, or reports false if a job already holds it
func (g flightGuard) enter() bool {
	select {
	case g <- struct{}{}:
		return true
	default:
		return false
	}
}

func (g flightGuard) leave() {
	<-g
}
