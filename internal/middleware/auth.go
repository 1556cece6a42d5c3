// Package middleware содержит HTTP middleware для сервиса ysrap-etpe.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

type contextKey string

const partnerIDKey contextKey = "partnerID"

// PartnerResolver проверяет, что партнёр из токена существует и активен.
type PartnerResolver interface {
	ResolvePartner(ctx context.Context, id int64) (*model.Partner, error)
}

// Claims описывает содержимое токена партнёра.
type Claims struct {
	PartnerID int64 `json:"partnerId"`
	jwt.RegisteredClaims
}

// AuthMiddleware выдаёт и проверяет bearer-токены партнёров (JWT, HS256).
type AuthMiddleware struct {
	secretKey []byte
	ttl       time.Duration
	resolver  PartnerResolver
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthMiddleware создаёт AuthMiddleware. Пустой секрет недопустим.
func NewAuthMiddleware(secret string, ttl time.Duration, resolver PartnerResolver, logger *zap.Logger) (*AuthMiddleware, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthMiddleware{
		secretKey: []byte(secret),
		ttl:       ttl,
		resolver:  resolver,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// IssueToken подписывает токен для партнёра.
func (a *AuthMiddleware) IssueToken(partnerID int64) (string, error) {
	now := a.now()
	claims := Claims{
		PartnerID: partnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(partnerID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Middleware проверяет заголовок Authorization и добавляет идентификатор партнёра в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		partnerID, err := a.parseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		if a.resolver != nil {
			if _, err := a.resolver.ResolvePartner(r.Context(), partnerID); err != nil {
				if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, "Token is not valid")
					return
				}
				a.logger.Error("resolve partner", zap.Int64("partnerId", partnerID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Server error")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithPartnerID(r.Context(), partnerID)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func (a *AuthMiddleware) parseToken(raw string) (int64, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secretKey, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid || claims.PartnerID <= 0 {
		return 0, errors.New("invalid token claims")
	}
	return claims.PartnerID, nil
}

// WithPartnerID возвращает контекст с идентификатором партнёра.
func WithPartnerID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, partnerIDKey, id)
}

// GetPartnerIDFromContext извлекает идентификатор партнёра из контекста запроса.
func GetPartnerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(partnerIDKey).(int64)
	return id, ok
}
