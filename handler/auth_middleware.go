package handler

import (
	"context"
	"net/http"
	"strings"

	"go-bank-ledger/common"
	"go-bank-ledger/model"
	"go-bank-ledger/service"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenParser verifies access tokens.
type TokenParser interface {
	ParseToken(token, wantType string) (*model.AppClaims, error)
}

// AuthMiddleware requires a valid "Authorization: Bearer <access token>".
func AuthMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				common.NewAppError(http.StatusUnauthorized, "Authentication credentials were not provided.", nil).
					WithKind("Unauthenticated").
					Send(w)
				return
			}

			claims, err := tokens.ParseToken(strings.TrimSpace(token), model.TokenTypeAccess)
			if err != nil {
				toAppError(err).Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ownerFromContext returns the authenticated caller set by AuthMiddleware.
func ownerFromContext(ctx context.Context) (service.Owner, bool) {
	claims, ok := ctx.Value(claimsKey).(*model.AppClaims)
	if !ok {
		return service.Owner{}, false
	}
	return service.Owner{UserID: claims.UserID, Username: claims.Username}, true
}

func requireOwner(r *http.Request) (service.Owner, *common.AppError) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		return service.Owner{}, common.NewAppError(http.StatusUnauthorized, "Authentication credentials were not provided.", nil).
			WithKind("Unauthenticated")
	}
	return owner, nil
}
