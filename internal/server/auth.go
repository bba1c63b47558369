package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/form3tech-oss/jwt-go"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/i18n"
	"github.com/julianstephens/huddle/internal/logger"
	"github.com/julianstephens/huddle/internal/models"
)

type ctxKey int

const userIDKey ctxKey = iota

// userID returns the authenticated user of the request.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// parseIdentity verifies an HMAC-signed bearer token issued by the identity
// service and extracts who it vouches for.
func parseIdentity(raw, secret, issuer string) (models.Identity, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, apperrors.New("invalid token")
	}
	if issuer != "" && !claims.VerifyIssuer(issuer, true) {
		return models.Identity{}, apperrors.New("unexpected token issuer")
	}

	id := models.Identity{
		UserID:    stringClaim(claims, "sub"),
		Name:      stringClaim(claims, "name"),
		AvatarURL: stringClaim(claims, "picture"),
	}
	if id.UserID == "" {
		return models.Identity{}, apperrors.New("token has no subject")
	}
	return id, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}

// authenticate rejects requests without a valid bearer token and makes sure
// the caller has a profile before any handler runs.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, r, apperrors.ErrUnauthenticated)
			return
		}
		id, err := parseIdentity(raw, s.opts.TokenSecret, s.opts.TokenIssuer)
		if err != nil {
			logger.Debug("Rejected bearer token", "error", err)
			writeError(w, r, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err))
			return
		}
		u, err := s.svc.EnsureUser(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// localeMiddleware resolves Accept-Language once per request.
func localeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := i18n.Match(r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(i18n.WithLocale(r.Context(), locale)))
	})
}
