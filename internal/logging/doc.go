// Package logging assembles structured slog loggers used across payflow
// components. It owns console/JSON handler selection, level plumbing, and
// context helpers so event-handling code automatically tags log lines with
// correlation IDs and request codes. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
