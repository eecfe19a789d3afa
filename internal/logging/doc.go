// Package logging provides structured logging for lanprobe.
//
// This package wraps a package-global zap logger with convenience functions
// and a couple of discovery-specific helpers. Logging is silent by default so
// that CLI output stays clean; set LANPROBE_LOG_LEVEL (or pass --log-level)
// to "debug", "info", "warn" or "error" to enable it.
//
// # Structured Logging
//
//	logging.Info("Probe sent",
//	    zap.String("session_id", id),
//	    zap.String("source", "192.168.1.20"),
//	)
//
// # Discovery Helpers
//
//	logging.LogSession(id, "bound", zap.Int("port", 9999))
//	logging.LogDatagram("received", "192.168.1.30:9999", payload)
//
// LogDatagram emits at debug level and includes a hex and printable-ASCII
// dump of the first 256 bytes of the payload.
//
// # Initialization
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// All functions are safe for concurrent use once Initialize has returned.
package logging
