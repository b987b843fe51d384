package audit

import (
	"context"

	"github.com/voxhire/interview-service/pkg/log"
)

// Audit actions.
const (
	ActionRegister      = "user.register"
	ActionLogin         = "user.login"
	ActionLoginFailed   = "user.login_failed"
	ActionRefresh       = "user.refresh"
	ActionCreateRoom    = "room.create"
	ActionUpdateRoom    = "room.update"
	ActionDeleteRoom    = "room.delete"
	ActionJoinRoom      = "room.join"
	ActionLeaveRoom     = "room.leave"
	ActionPostMessage   = "message.post"
	ActionPostBot       = "message.post_bot"
	ActionRelayGenerate = "message.relay_generate"
	ActionTranscribe    = "message.transcribe"
	ActionAuthFailed    = "auth.failed"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
