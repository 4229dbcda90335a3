/*
Package lifecycle decides what a platform start has to do and does it.

Every Start re-derives the installation state from what is on disk and in
the credential record. Nothing is remembered between runs.

	Classify
	   ├─ absent             ──▶ reconcile secret key ──▶ setup
	   ├─ configured-stale   ──▶ reconcile secret key ──▶ setup
	   └─ configured-current ──▶ reconcile proxy ──▶ start units
	                                    │
	                                    ▼
	                              liveness poll

# Classification

The installation is absent when the secret-key file or the setup marker is
missing, or when the record holds no key or a key different from the file.
Otherwise it is configured, and current only when the installed platform
package version equals the version marker the installer wrote. A missing
version marker or package counts as stale, which re-runs setup.

# Setup and rollback

Absent and stale installations reconcile the secret key and run the
installer with the packages, migrations and firewall phases excluded. When
the installer fails, the record key is emptied and the setup marker removed
so the next run classifies the host as absent and starts over. Failures to
start units are returned as they are, with no rollback.

# Proxy

A current installation has its settings file brought in line with the
configured proxy before services start. Proxy assignments are dropped and,
when a proxy is configured, written again at the end of the file. Running
it twice gives the same file.

# Liveness

Every Start ends with the liveness poll, including setup runs. Exhausting
the attempts returns *health.TimeoutError, which leaves the installation
as it is.
*/
package lifecycle
