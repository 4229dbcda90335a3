/*
Package setup runs the external platform installer.

Invoker.Run is the only place towerctl spawns an external process. It asks
the inventory composer for a transient inventory file and runs:

	<installer> -i <inventory> \
	    -e "minimum_var_space=0 http_port=54321 https_port=54322 tower_package_name=..." \
	    -- --skip-tags=packages,migrations,firewall

The installer's stdout and stderr are captured together. A non-zero exit,
or any failure before the installer could start, comes back as *Error with
the exit code and captured output; the caller is responsible for rolling
back credential state. Nothing here retries.

On success the setup-completed marker (an empty file whose existence is the
flag) is written. MarkerExists and ClearMarker are used by the lifecycle
controller for classification and rollback.
*/
package setup
