package context

import (
	"context"
	"strings"
)

type contextKey string

const (
	requestIDKey   contextKey = "observability_request_id"
	workspaceIDKey contextKey = "observability_workspace_id"
	actorIDKey     contextKey = "observability_actor_id"
	actorRoleKey   contextKey = "observability_actor_role"
)

// WithRequestID attaches the request correlation identifier to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithWorkspaceID attaches the workspace identifier to the context.
func WithWorkspaceID(ctx context.Context, workspaceID string) context.Context {
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return ctx
	}
	return context.WithValue(ctx, workspaceIDKey, workspaceID)
}

// WorkspaceIDFromContext returns the workspace identifier, if any.
func WorkspaceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(workspaceIDKey).(string)
	return value
}

// WithActor attaches the acting user and their workspace role to the context.
func WithActor(ctx context.Context, actorID, actorRole string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, strings.TrimSpace(actorID))
	return context.WithValue(ctx, actorRoleKey, strings.TrimSpace(actorRole))
}

// ActorFromContext returns the acting user id and role, if any.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	actorID, _ := ctx.Value(actorIDKey).(string)
	actorRole, _ := ctx.Value(actorRoleKey).(string)
	return actorID, actorRole
}
