// Package logging provides slog loggers with per-module levels.
//
// Call Initialize once at startup, then ask for a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"hw": "debug"},
//	})
//	logger := logging.GetLogger("engine")
//
// Loggers obtained before Initialize share their level with the configured
// one, so package-level loggers pick up configuration after the fact.
// SetModuleLevel adjusts a module at runtime.
//
// Records go to stdout when it is attached to a terminal, pipe, socket or
// file, and to the systemd journal when journald is listening. With both
// present a Tee writes to each. Journal entries carry SYSLOG_IDENTIFIER=blinkd
// and one field per attribute:
//
//	journalctl -t blinkd MODULE=hw -p warning
//	journalctl -t blinkd LED=status -f
//
// In config.toml, keys under [logging] other than level and format name
// modules:
//
//	[logging]
//	level = "info"
//	format = "text"
//	hw = "debug"
//	engine = "warn"
package logging
