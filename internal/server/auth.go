package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/apperr"
	obscontext "github.com/smallbiznis/internlink/internal/observability/context"
)

const (
	contextUserIDKey = "user_id"
	contextRoleKey   = "user_role"
)

// Claims is the bearer token payload. Subject carries the account id; the
// role is informational and re-read from storage on every request.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token for userID.
func IssueToken(secret string, userID snowflake.ID, role accountdomain.Role, now time.Time, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Server) parseToken(raw string) (snowflake.ID, error) {
	secret := []byte(s.cfg.AuthJWTSecret)
	if len(secret) == 0 {
		return 0, ErrUnauthorized
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, ErrUnauthorized
	}

	id, err := snowflake.ParseString(strings.TrimSpace(claims.Subject))
	if err != nil || id == 0 {
		return 0, ErrUnauthorized
	}
	return id, nil
}

// AuthRequired resolves the bearer token to an active account. Deleted
// accounts are rejected like unknown ones.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID, err := s.parseToken(parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}

		participant, err := s.accounts.GetActiveParticipant(c.Request.Context(), userID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				err = ErrUnauthorized
			}
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, participant.ID())
		c.Set(contextRoleKey, participant.Role())
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), string(participant.Role()), participant.ID().String()))
		c.Next()
	}
}

func RequireRole(roles ...accountdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := actorRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrAdminOnly)
	}
}

func actorID(c *gin.Context) snowflake.ID {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(snowflake.ID)
	return id
}

func actorRole(c *gin.Context) accountdomain.Role {
	v, ok := c.Get(contextRoleKey)
	if !ok {
		return ""
	}
	role, _ := v.(accountdomain.Role)
	return role
}
