package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

const contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are minted by the school's account service (or the admin CLI); this API only verifies them.
type Claims struct {
	jwt.StandardClaims
	IsAdmin  bool     `json:"is_admin,omitempty"`
	ClassIDs []string `json:"class_ids,omitempty"`
}

func NewClaims(subject string, isAdmin bool, classIDs []string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		IsAdmin:  isAdmin,
		ClassIDs: classIDs,
	}
}

// CanAccessClass reports whether the caller may work with the class.
// Admins access every class; so do teachers not linked to any class yet.
func (c Claims) CanAccessClass(classID string) bool {
	if c.IsAdmin || len(c.ClassIDs) == 0 {
		return true
	}
	for _, id := range c.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
