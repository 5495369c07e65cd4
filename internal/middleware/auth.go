package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/pkordes/tourdesk/internal/domain"
)

// Claims is the bearer token payload. Subject carries the user id and Orgs
// the organizations the user may act on.
type Claims struct {
	Orgs []string `json:"orgs"`
	jwt.RegisteredClaims
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying a.
func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored by the authenticator, or the zero Actor
// when the request was not authenticated.
func ActorFrom(ctx context.Context) domain.Actor {
	a, _ := ctx.Value(actorKey{}).(domain.Actor)
	return a
}

// NewAuthenticator returns a middleware that requires an HS256 bearer token
// signed with secret. The decoded caller is stored in the request context
// and can be read back with ActorFrom.
func NewAuthenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
				return
			}
			actor, err := ParseToken(secret, raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// ParseToken verifies raw and converts its claims into an Actor.
func ParseToken(secret []byte, raw string) (domain.Actor, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return domain.Actor{}, err
	}
	if !tok.Valid {
		return domain.Actor{}, fmt.Errorf("token not valid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("subject: %w", err)
	}
	actor := domain.Actor{UserID: userID}
	for _, s := range claims.Orgs {
		id, err := uuid.Parse(s)
		if err != nil {
			return domain.Actor{}, fmt.Errorf("orgs: %w", err)
		}
		actor.OrgIDs = append(actor.OrgIDs, id)
	}
	return actor, nil
}

// IssueToken mints an HS256 token for userID valid for ttl from now.
func IssueToken(secret []byte, userID uuid.UUID, orgIDs []uuid.UUID, ttl time.Duration, now time.Time) (string, error) {
	orgs := make([]string, 0, len(orgIDs))
	for _, id := range orgIDs {
		orgs = append(orgs, id.String())
	}
	claims := Claims{
		Orgs: orgs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
