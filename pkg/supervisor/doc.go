/*
Package supervisor controls the OS service units that make up the platform.

The platform is a ServiceSet: an ordered list of unit names read from the
TOWER_SERVICES variable of the platform's sysconfig file. "Running" means
every unit is running; one stopped unit makes the whole platform not
running.

	Adapter (whole ServiceSet, in order)
	   │  StartAndEnable / Stop / StopAndDisable / Running
	   ▼
	UnitController (one unit)
	   │  Start / Stop / Enable / Disable / IsRunning
	   ▼
	SystemdController ──D-Bus──▶ systemd

The adapter does not retry. The first failing unit ends the sequence and
comes back as *Error naming the unit and the action; units after it are
left alone.

SystemdController uses github.com/coreos/go-systemd/v22/dbus. Start and stop
requests use job mode "replace" and wait for systemd to report the job
result, so each call returns only once the unit has actually changed state.
*/
package supervisor
