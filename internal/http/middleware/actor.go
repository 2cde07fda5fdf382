package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/straye-as/jobsite-crm/internal/domain"
)

// writeError sends an APIError from middleware that runs before any handler
func writeError(w http.ResponseWriter, status int, errorType, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errorType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// ActingUserHeader names the sales rep a request acts as
const ActingUserHeader = "X-Acting-User"

type actorKey struct{}

// WithActor returns a copy of ctx carrying the acting user
func WithActor(ctx context.Context, actor domain.UserID) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting user stored by ActingUser
func ActorFromContext(ctx context.Context) (domain.UserID, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.UserID)
	return actor, ok
}

// ActingUser resolves the acting user from the X-Acting-User header. Requests
// without the header act as defaultActor.
func ActingUser(defaultActor domain.UserID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := defaultActor
			if raw := strings.TrimSpace(r.Header.Get(ActingUserHeader)); raw != "" {
				id, err := strconv.Atoi(raw)
				if err != nil || id <= 0 {
					writeError(w, http.StatusBadRequest, domain.ErrorTypeBadRequest, ActingUserHeader+" must be a positive integer")
					return
				}
				actor = domain.UserID(id)
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
