/*
Package metrics records towerctl run metrics with Prometheus.

towerctl is a one-shot process, so there is no /metrics endpoint to scrape.
Instead, when --metrics-file is set, every registered metric is written at
the end of the run in the text exposition format, ready for the node
exporter's textfile collector:

	towerctl start --metrics-file /var/lib/node_exporter/textfile/towerctl.prom

# Metrics

	towerctl_lifecycle_runs_total{path,outcome}    counter
	towerctl_setup_duration_seconds                histogram
	towerctl_liveness_attempts_total{result}       counter
	towerctl_installation_state{state}             gauge (1 = state found)

path is one of start-services, configure, upgrade, stop, disable. outcome
is success, setup_failure, service_failure, liveness_timeout or error.

Metrics are registered with the default registry in init, the same way the
go_ and process_ collectors are.
*/
package metrics
