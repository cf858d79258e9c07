package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/humzaiqbal/trash-tracker/internal/auth"
	"github.com/humzaiqbal/trash-tracker/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserKey is the context key for storing the session user.
const UserKey contextKey = "user"

// UserFromContext returns the session user resolved by Identify.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(UserKey).(models.User)
	return user, ok
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	user, _ := UserFromContext(ctx)
	return user.ID
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// Identify resolves the bearer token on every call into a session user.
// Calls without a valid token go through anonymously; procedures that need
// a user reject them in the handler.
type Identify struct {
	tokens *auth.TokenManager
}

var _ connect.Interceptor = (*Identify)(nil)

// NewIdentify creates an interceptor backed by tokens.
func NewIdentify(tokens *auth.TokenManager) *Identify {
	return &Identify{tokens: tokens}
}

func (i *Identify) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return next(i.resolve(ctx, req.Header().Get("Authorization")), req)
	}
}

func (i *Identify) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *Identify) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return next(i.resolve(ctx, conn.RequestHeader().Get("Authorization")), conn)
	}
}

func (i *Identify) resolve(ctx context.Context, header string) context.Context {
	token, ok := bearerToken(header)
	if !ok {
		return ctx
	}
	claims, err := i.tokens.Validate(token)
	if err != nil {
		return ctx
	}
	return WithUser(ctx, claims.User())
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
