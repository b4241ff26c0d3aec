// Package telemetry names the event types that flow over the daemon's
// WebSocket stream and stamps outgoing payloads. Components build events as
// map[string]any so fields stay flexible; the type constants here keep the
// wire vocabulary in one place for both the daemon and stotisctl watch.
package telemetry

import "time"

// Event type values carried in the "type" field of every broadcast.
const (
	TypeHeartbeat        = "heartbeat"
	TypeLog              = "log"
	TypeState            = "state"
	TypeSteer            = "steer"
	TypePassStarted      = "pass_started"
	TypePassSkipped      = "pass_skipped"
	TypePassFinished     = "pass_finished"
	TypeCurrentPass      = "current_pass"
	TypeReplanDone       = "replan_done"
	TypeSettingsChanged  = "settings_changed"
	TypeSelectionChanged = "selection_changed"
)

// Event stamps data with its type, the emitting component, and the wall
// clock, returning the payload ready for broadcast. The input map is not
// modified.
func Event(component, typ string, data map[string]any) map[string]any {
	ev := make(map[string]any, len(data)+3)
	for k, v := range data {
		ev[k] = v
	}
	ev["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	ev["component"] = component
	ev["type"] = typ
	return ev
}

// Log builds a log-level event the watch command renders as a console line.
func Log(component, level, message string) map[string]any {
	return Event(component, TypeLog, map[string]any{
		"level":   level,
		"message": message,
	})
}
