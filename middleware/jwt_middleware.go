package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"summarease/config"
	"summarease/domain"
)

const userContextKey = "summareaseUser"

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid bearer token")
)

// UserLoader reads the account a token refers to.
type UserLoader interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
}

// JWTAuthMiddleware verifies HS256 bearer tokens and loads the user named
// by the subject claim.
type JWTAuthMiddleware struct {
	users  UserLoader
	secret []byte
	issuer string
	logger *slog.Logger
}

func NewJWTAuthMiddleware(users UserLoader, cfg config.AuthConfig, logger *slog.Logger) *JWTAuthMiddleware {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, JWT auth will deny all requests")
	}
	return &JWTAuthMiddleware{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		logger: logger,
	}
}

// RequireUser rejects requests without a valid token for an active user.
func (m *JWTAuthMiddleware) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := m.subject(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if !errors.Is(err, errMissingToken) {
					m.logger.DebugContext(c.Request().Context(), "token rejected", "error", err)
				}
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
			}

			user, err := m.users.Get(c.Request().Context(), userID)
			if err != nil {
				return err
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusBadRequest, "inactive user")
			}

			SetUser(c, user)
			return next(c)
		}
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFromContext(c)
			if !ok || !user.IsAdmin() {
				return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

func (m *JWTAuthMiddleware) subject(header string) (int64, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return 0, errMissingToken
	}
	if len(m.secret) == 0 {
		return 0, fmt.Errorf("%w: secret not configured", errInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...); err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject %q is not a user id", errInvalidToken, claims.Subject)
	}
	return id, nil
}

// IssueToken signs an access token for userID.
func IssueToken(cfg config.AuthConfig, userID int64, ttl time.Duration, now time.Time) (string, error) {
	if cfg.JWTSecret == "" {
		return "", errors.New("JWT_SECRET is not configured")
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// SetUser attaches the authenticated user to the request.
func SetUser(c echo.Context, user *domain.User) {
	c.Set(userContextKey, user)
}

// UserFromContext returns the user attached by RequireUser.
func UserFromContext(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(userContextKey).(*domain.User)
	return user, ok && user != nil
}
