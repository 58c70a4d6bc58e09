package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const actorContextKey = "orderflow.actor"

var errMissingActor = errors.New("request is not authenticated")

// Claims is the bearer token payload. Subject carries the user id.
type Claims struct {
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 bearer tokens and stores the resulting actor
// in the echo context.
func JWTAuthenticator(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return unauthorized(ctx, "Missing authorization header")
			}
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return unauthorized(ctx, "Invalid authorization header format")
			}

			var claims Claims
			_, err := jwt.ParseWithClaims(tokenStr, &claims,
				func(*jwt.Token) (any, error) { return secret, nil },
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithLeeway(30*time.Second),
			)
			if err != nil {
				return unauthorized(ctx, classifyJWTError(err))
			}

			principal, err := claims.actor()
			if err != nil {
				return unauthorized(ctx, "Invalid token claims")
			}

			ctx.Set(actorContextKey, principal)
			return next(ctx)
		}
	}
}

func (c Claims) actor() (actor.Actor, error) {
	id, err := kernel.UUIDFromString(c.Subject)
	if err != nil {
		return actor.Actor{}, err
	}
	role, err := actor.ParseRole(c.Role)
	if err != nil {
		return actor.Actor{}, err
	}

	var department *kernel.UUID
	if c.DepartmentID != "" {
		dep, depErr := kernel.UUIDFromString(c.DepartmentID)
		if depErr != nil {
			return actor.Actor{}, depErr
		}
		department = &dep
	}
	return actor.NewActor(id, role, department)
}

// SignToken issues an HS256 token for a, valid for ttl from now.
func SignToken(secret []byte, a actor.Actor, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role: a.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if a.DepartmentID != nil {
		claims.DepartmentID = a.DepartmentID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ActorFrom returns the authenticated actor of the request.
func ActorFrom(ctx echo.Context) (actor.Actor, error) {
	principal, ok := ctx.Get(actorContextKey).(actor.Actor)
	if !ok {
		return actor.Actor{}, errMissingActor
	}
	return principal, nil
}

func unauthorized(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusUnauthorized, Error{Code: "unauthorized", Error: msg})
}

func classifyJWTError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Invalid token signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "Disallowed signing algorithm"
	default:
		return "Invalid token"
	}
}
