package services

import (
	"context"

	flexerrors "flexchat/pkg/errors"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
)

// UserIDFromContext extracts the authenticated user id that the auth
// middleware stored on the request context.
func UserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	raw, ok := ctx.Value(logger.UserIdKey).(string)
	if !ok || raw == "" {
		return uuid.Nil, flexerrors.ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, flexerrors.ErrUnauthorized
	}
	return id, nil
}

// WithUserContext returns a context carrying the user id, as the auth
// middleware would set it. Used by internal callers and tests.
func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, logger.UserIdKey, userID.String())
}
