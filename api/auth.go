package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"parlayz/models"
	"parlayz/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer = "parlayz"
	actorKey    = "parlayz.actor"
)

// Claims identifies the caller. Subject carries the user id. Admin reflects
// the account at signing time; requests use the stored flag.
type Claims struct {
	Admin bool `json:"admin"`

	jwt.RegisteredClaims
}

// JWT signs and verifies HS256 identity tokens
type JWT struct {
	Secret   []byte
	TokenTTL time.Duration
}

// Sign issues a token for user
func (j JWT) Sign(user *models.User) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(j.TokenTTL)
	claims := Claims{
		Admin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

// Verify parses token and returns the actor it names
func (j JWT) Verify(token string) (models.Actor, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return models.Actor{}, err
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return models.Actor{}, errors.New("invalid token")
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return models.Actor{}, errors.New("invalid token subject")
	}
	return models.Actor{UserID: userID, IsAdmin: c.Admin}, nil
}

// userLookup loads the caller's current account
type userLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequireActor rejects requests without a valid bearer token and stores the
// verified actor on the context. Admin rights come from the stored account,
// so revoking them takes effect on the next request.
func RequireActor(j JWT, users userLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(auth, "Bearer ") {
			Error(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		actor, err := j.Verify(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
		if err != nil {
			Error(c, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		user, err := users.GetByID(c.Request.Context(), actor.UserID)
		if errors.Is(err, service.ErrNotFound) || (err == nil && user == nil) {
			Error(c, http.StatusUnauthorized, "unknown user")
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		actor.IsAdmin = user.IsAdmin

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(models.Actor)
	return actor
}
