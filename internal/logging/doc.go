// Package logging provides structured logging with per-module log levels.
//
// Initialize once at startup, then fetch loggers by module name:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"supervisor": "debug",
//			"ffmpeg":     "warn",
//		},
//	})
//
//	logger := logging.GetLogger("supervisor").With("child", name)
//	logger.Info("Child launched", "pid", pid)
//
// Records go to stderr (text or json). When journald is reachable they are
// also sent to the journal under the "multistream" identifier, with
// attributes as upper-case fields:
//
//	journalctl -t multistream MODULE=supervisor
//	journalctl -t multistream CHILD=live/abc -f
//
// Module levels override the global level for that module only. In a config
// file every key of the logging table other than level and format names a
// module:
//
//	[logging]
//	level = "info"
//	format = "text"
//	ffmpeg = "warn"
package logging
