package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// Logging is a Connect interceptor that logs every RPC call: the
// procedure name, user ID, duration, and any error code. Install it after
// Identify so the user is known.
type Logging struct{}

var _ connect.Interceptor = Logging{}

// LoggingInterceptor returns the logging interceptor.
func LoggingInterceptor() Logging {
	return Logging{}
}

func (Logging) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		logCall(req.Spec().Procedure, GetUserID(ctx), start, err)
		return resp, err
	}
}

func (Logging) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (Logging) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		procedure := conn.Spec().Procedure
		userID := GetUserID(ctx)
		slog.Info("Stream opened", "procedure", procedure, "user_id", userID)
		start := time.Now()
		err := next(ctx, conn)
		logCall(procedure, userID, start, err)
		return err
	}
}

func logCall(procedure, userID string, start time.Time, err error) {
	duration := time.Since(start).Milliseconds()
	if err == nil {
		slog.Info("RPC ok",
			"procedure", procedure,
			"user_id", userID,
			"duration_ms", duration,
		)
		return
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		slog.Warn("RPC error",
			"procedure", procedure,
			"code", connectErr.Code(),
			"error", connectErr.Message(),
			"user_id", userID,
			"duration_ms", duration,
		)
		return
	}
	slog.Error("RPC error",
		"procedure", procedure,
		"error", err,
		"user_id", userID,
		"duration_ms", duration,
	)
}
