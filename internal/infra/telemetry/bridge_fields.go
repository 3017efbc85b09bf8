package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldServer     = "server"
	FieldSkill      = "skill"
	FieldScript     = "script"
	FieldCommand    = "command"
	FieldDurationMs = "duration_ms"
)

const (
	EventConnectAttempt = "connect_attempt"
	EventConnectSuccess = "connect_success"
	EventConnectFailure = "connect_failure"
	EventRouteError     = "route_error"
	EventWrapperInstall = "wrapper_install"
	EventWrapperRemove  = "wrapper_remove"
	EventSyncComplete   = "sync_complete"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ServerField(server string) zap.Field {
	return zap.String(FieldServer, server)
}

func SkillField(skill string) zap.Field {
	return zap.String(FieldSkill, skill)
}

func ScriptField(script string) zap.Field {
	return zap.String(FieldScript, script)
}

func CommandField(command string) zap.Field {
	return zap.String(FieldCommand, command)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}
