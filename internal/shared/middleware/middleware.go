package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

var ErrNotAuthenticated = errors.New("user not authenticated")

// Identity is the authenticated caller as asserted by the access token.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// JWTAuth rejects requests without a valid access token and stores the
// caller's id and role on the context.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header is required", nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil)
			c.Abort()
			return
		}

		claims, err := parseAccessToken(parts[1], secret)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth validates a token if one is present but never rejects.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := parseAccessToken(parts[1], secret); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func parseAccessToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
		return nil, errors.New("invalid token type")
	}
	if _, ok := claims["user_id"].(string); !ok {
		return nil, errors.New("missing user_id claim")
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims jwt.MapClaims) {
	c.Set(ContextUserID, claims["user_id"])
	role, _ := claims["role"].(string)
	c.Set(ContextUserRole, role)
}

// RequireRoles allows the request through when the caller holds any of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			response.Error(c, http.StatusUnauthorized, "user role not found in context", nil)
			c.Abort()
			return
		}

		role, _ := userRole.(string)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "Insufficient permissions", nil)
		c.Abort()
	}
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(RoleAdmin)
}

// CurrentIdentity reads the caller set by JWTAuth.
func CurrentIdentity(c *gin.Context) (Identity, error) {
	raw, exists := c.Get(ContextUserID)
	if !exists {
		return Identity{}, ErrNotAuthenticated
	}
	idStr, ok := raw.(string)
	if !ok {
		return Identity{}, ErrNotAuthenticated
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return Identity{}, ErrNotAuthenticated
	}

	role := c.GetString(ContextUserRole)
	return Identity{UserID: userID, Role: role}, nil
}

// GenerateAccessToken signs an access token in the shape JWTAuth expects.
// Identity is issued elsewhere in production; this serves the seed tool and tests.
func GenerateAccessToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"type":    "access",
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
