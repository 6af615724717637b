/*
Package server holds the seisvds service configuration and its HTTP API.

A configuration file names the store to open and how bricks are fetched and
cached.  It can be TOML, like

	[server]
	http_address = "localhost:8000"
	cors_domains = ["http://localhost:3000"]

	[store]
	engine = "blob"
	url = "gs://my-bucket"
	prefix = "surveys/small"

	[cache]
	kind = "lru"
	entries = 1024

	[fetch]
	concurrency = 16
	retries = 3
	backoff_initial_ms = 50
	backoff_max_ms = 2000

	[logging]
	logfile = "/var/log/vdsserve.log"
	max_log_size = 500 # MB
	max_log_age = 30   # days

or YAML with the same sections when the file name ends in .yaml or .yml.
*/
package server
