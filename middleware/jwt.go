package middleware

import (
	"errors"
	"fmt"
	"pgstay/config"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload of both token kinds. Role is only set on access tokens.
type Claims struct {
	UserID uint   `json:"userId"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access and refresh tokens with separate secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
}

func (t *TokenIssuer) RefreshTTL() time.Duration {
	return t.refreshTTL
}

// AccessToken generates a short lived bearer token for the user
func (t *TokenIssuer) AccessToken(userID uint, role string) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
}

// RefreshToken generates a long lived token and returns it with its unique id.
func (t *TokenIssuer) RefreshToken(userID uint) (string, string, error) {
	now := t.now()
	jti := uuid.NewString()
	claims := Claims{
		UserID: userID,
		Type:   tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

func (t *TokenIssuer) ParseAccess(tokenString string) (*Claims, error) {
	return t.parse(tokenString, t.accessSecret, tokenTypeAccess)
}

func (t *TokenIssuer) ParseRefresh(tokenString string) (*Claims, error) {
	return t.parse(tokenString, t.refreshSecret, tokenTypeRefresh)
}

func (t *TokenIssuer) parse(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Check if the token method is valid
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenType || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JWTMiddleware checks for a valid access token in the Authorization header
func JWTMiddleware(tokens *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return MessageResponse(c, fiber.StatusUnauthorized, "Missing or invalid Authorization header")
		}

		// The token should be prefixed with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return MessageResponse(c, fiber.StatusUnauthorized, "Invalid Authorization header format")
		}

		claims, err := tokens.ParseAccess(strings.TrimSpace(authHeader[len("Bearer "):]))
		if err != nil {
			return MessageResponse(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals("userId", claims.UserID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// RequireRole must run after JWTMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Role(c) != role {
			return MessageResponse(c, fiber.StatusForbidden, fmt.Sprintf("Only %ss can perform this action", role))
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userId").(uint)
	return id
}

func Role(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}
