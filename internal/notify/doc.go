// Package notify presents ephemeral staff notifications.
//
// A Presenter stamps each notification with an id and creation time, hands
// it to a Sink for rendering, and schedules its removal after the display
// duration. Sinks decide what rendering means: a log line, a text
// transcript, or a websocket broadcast to open dashboards.
//
// Thread-safety: Presenter and every Sink in this package are safe for
// concurrent use. Auto-dismissal runs on clock timer goroutines.
package notify
