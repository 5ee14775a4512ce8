package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"handoff/internal/domain"
	"handoff/internal/observability/metrics"
	obsmw "handoff/internal/observability/middleware"
	"handoff/internal/service"
)

// IdentityResolver confirms a verified token still belongs to a live account.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accountID domain.AccountID) (*domain.Account, error)
}

// TokenVerifier checks a bearer token without touching storage.
type TokenVerifier interface {
	Verify(token string) (*domain.TokenClaims, error)
}

// Gate authenticates protected routes. Requests without a valid bearer token
// for an active account get 401 and never reach the wrapped handler.
type Gate struct {
	tokens     TokenVerifier
	identities IdentityResolver
	denylist   service.Denylist
	errs       errorWriter
}

func NewGate(tokens TokenVerifier, identities IdentityResolver, denylist service.Denylist, production bool) *Gate {
	return &Gate{tokens: tokens, identities: identities, denylist: denylist, errs: errorWriter{production: production}}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := "success"
		defer func() {
			metrics.GateAttemptsTotal.WithLabelValues(result).Inc()
		}()
		ctx := r.Context()
		reqID := obsmw.RequestIDFromContext(ctx)

		reject := func(reason string, err error) {
			result = reason
			slog.Warn("access denied", "reason", reason, "error", err, "path", r.URL.Path, "request_id", reqID)
			g.errs.write(w, r, fmt.Errorf("%w: %s", domain.ErrUnauthorized, publicMessage(err)))
		}

		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			reject("missing_token", fmt.Errorf("missing bearer token"))
			return
		}

		claims, err := g.tokens.Verify(raw)
		if err != nil {
			reject("invalid_token", fmt.Errorf("invalid or expired token"))
			slog.Debug("token verification failed", "error", err, "request_id", reqID)
			return
		}

		if g.denylist != nil && claims.TokenID != "" {
			revoked, err := g.denylist.IsRevoked(ctx, claims.TokenID)
			if err != nil {
				slog.Error("denylist lookup failed", "error", err, "request_id", reqID)
				reject("denylist_error", fmt.Errorf("token could not be checked"))
				return
			}
			if revoked {
				reject("revoked", fmt.Errorf("token has been revoked"))
				return
			}
		}

		acc, err := g.identities.ResolveIdentity(ctx, claims.AccountID)
		if err != nil {
			reject("inactive_account", fmt.Errorf("account is not active"))
			slog.Debug("identity resolution failed", "error", err, "account_id", claims.AccountID, "request_id", reqID)
			return
		}

		ctx = context.WithValue(ctx, accountKey{}, acc)
		ctx = context.WithValue(ctx, claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type accountKey struct{}
type claimsKey struct{}

// AccountFromContext returns the account attached by the Gate.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	acc, ok := ctx.Value(accountKey{}).(*domain.Account)
	return acc, ok && acc != nil
}

// ClaimsFromContext returns the verified token claims attached by the Gate.
func ClaimsFromContext(ctx context.Context) (*domain.TokenClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*domain.TokenClaims)
	return c, ok && c != nil
}
