package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the readiness gate. Flipping it off makes Ready report 503
// regardless of dependency probes, so load balancers drain the instance
// during shutdown.
func SetReady(v bool) {
	ready.Store(v)
}

// Ready reports the current readiness gate.
func Ready() bool {
	return ready.Load()
}
