/*
Package health verifies that the platform is actually serving traffic.

After every start (fresh install, upgrade or plain service start) towerctl
polls the platform's local HTTP endpoint:

	attempt 1 ──fail──▶ wait Delay ──▶ attempt 2 ──fail──▶ ... ──▶ attempt N
	    │                                  │                         │
	  pass                               pass                      fail
	    ▼                                  ▼                         ▼
	  done                               done                 *TimeoutError

A connection refused, a timeout and a non 2xx/3xx status are all just
unhealthy Results; the checker never returns an error for them. Only
exhausting every attempt is an error, and nothing above Poll retries it.

The default policy is 5 attempts, 10 seconds apart, regardless of whether
the platform was just installed or merely restarted.

# Waiting

Poller waits on a Clock (the After method of github.com/juju/clock.Clock).
Production code passes clock.WallClock; tests pass a clock that records the
requested delays and fires immediately.
*/
package health
