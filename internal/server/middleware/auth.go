package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/pkg/xcache"
)

// ErrInvalidToken indicates the bearer token failed signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// AuthConfig configures bearer token verification for the API surface.
type AuthConfig struct {
	// Secret is the HMAC key used to verify JWT signatures.
	Secret string `conf:"secret" yaml:"secret" json:"secret"`
	// Cache optionally caches verified tokens to skip repeated signature checks.
	Cache xcache.Config `conf:"cache" yaml:"cache" json:"cache"`
}

// identityClaims is the expected token payload. Subject is the caller id,
// tenants the set of tenant ids the caller may act within.
type identityClaims struct {
	jwt.RegisteredClaims

	Tenants []string `json:"tenants,omitempty"`
	Root    bool     `json:"root,omitempty"`
}

// Authenticator verifies bearer tokens and resolves them to a caller identity.
type Authenticator struct {
	secret []byte
	cache  xcache.Cache[authz.SecurityContext]
}

func NewAuthenticator(cfg AuthConfig) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.Secret),
		cache:  xcache.NewFromConfig[authz.SecurityContext](cfg.Cache),
	}
}

// Authenticate verifies the token and returns the identity it carries.
// Verified tokens are cached until their remaining lifetime expires.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (authz.SecurityContext, error) {
	if sc, err := a.cache.Get(ctx, token); err == nil {
		return sc, nil
	}

	claims := &identityClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return authz.SecurityContext{}, ErrInvalidToken
	}

	sc, err := securityContextFromClaims(claims)
	if err != nil {
		return authz.SecurityContext{}, ErrInvalidToken
	}

	if ttl := tokenTTL(claims); ttl > 0 {
		_ = a.cache.Set(ctx, token, sc, xcache.WithExpiration(ttl))
	}

	return sc, nil
}

func securityContextFromClaims(claims *identityClaims) (authz.SecurityContext, error) {
	sc := authz.SecurityContext{Root: claims.Root}

	if claims.Subject != "" {
		subject, err := uuid.Parse(claims.Subject)
		if err != nil {
			return authz.SecurityContext{}, fmt.Errorf("parse subject: %w", err)
		}

		sc.Subject = &subject
	}

	for _, raw := range claims.Tenants {
		tenant, err := uuid.Parse(raw)
		if err != nil {
			return authz.SecurityContext{}, fmt.Errorf("parse tenant: %w", err)
		}

		sc.Tenants = append(sc.Tenants, tenant)
	}

	return sc, nil
}

func tokenTTL(claims *identityClaims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}

	return time.Until(claims.ExpiresAt.Time)
}

// ExtractBearerToken extracts the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("Authorization header is required")
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("Authorization header must start with 'Bearer '")
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", errors.New("token is required")
	}

	return token, nil
}

// WithJWTAuth verifies the bearer token and installs the caller identity into
// the request context for the authorization core to consume.
func WithJWTAuth(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, objects.ErrorResponse{
				Error: objects.Error{
					Type:    http.StatusText(http.StatusUnauthorized),
					Message: err.Error(),
				},
			})

			return
		}

		sc, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, objects.ErrorResponse{
					Error: objects.Error{
						Type:    http.StatusText(http.StatusUnauthorized),
						Message: "Invalid token",
					},
				})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, objects.ErrorResponse{
					Error: objects.Error{
						Type:    http.StatusText(http.StatusInternalServerError),
						Message: "Failed to validate token",
					},
				})
			}

			return
		}

		ctx, err := authz.WithSecurityContext(c.Request.Context(), sc)
		if err != nil {
			AbortWithError(c, http.StatusInternalServerError, err)
			return
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
