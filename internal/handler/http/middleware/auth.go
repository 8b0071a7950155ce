package middleware

import (
	"context"
	"net/http"

	"github.com/buildcrew/workforce-backend/internal/domain/activity"
	"github.com/buildcrew/workforce-backend/internal/domain/auth"
	"github.com/buildcrew/workforce-backend/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type claimsKey struct{}

// AuthRequired rejects requests without a verified access token and stores the
// parsed claims on the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, tokenClaims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := tokenClaims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			claims, err := auth.ClaimsFromMap(tokenClaims)
			if err != nil {
				response.HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// ClaimsFromContext returns the claims stored by AuthRequired.
func ClaimsFromContext(ctx context.Context) (auth.Claims, error) {
	claims, ok := ctx.Value(claimsKey{}).(auth.Claims)
	if !ok {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return claims, nil
}

// ActorFromContext identifies the caller for the activity log.
func ActorFromContext(ctx context.Context) (activity.Actor, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return activity.Actor{}, err
	}
	return activity.Actor{
		ID:   claims.UserID,
		Name: claims.Name,
		Role: string(claims.Role),
	}, nil
}
