package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/server/auth"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// accountIDFromContext returns the authenticated account id set by the
// authenticate middleware.
func accountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}

// authenticate validates the bearer token and stores the account id in the
// request context. Missing, malformed, and expired tokens all produce the
// same 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		accountID, err := auth.GetAccountIDFromToken(token, s.jwtSecret)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSubscription gates content creation behind an active subscription.
// The entitlement is checked fresh on every request; existing entries stay
// readable and deletable without one.
func (s *Server) requireSubscription(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := accountIDFromContext(r.Context())

		active, err := s.billing.HasActiveEntitlement(r.Context(), accountID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if !active {
			respondError(w, http.StatusPaymentRequired, "subscription required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
