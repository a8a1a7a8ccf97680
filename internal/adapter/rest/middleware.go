package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const principalKey contextKey = "principal"

// Claims is the JWT payload issued by the user service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalFrom returns the authenticated caller stored by JWTAuth.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok && p.UserID != ""
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// JWTAuth rejects requests without a valid HMAC-signed bearer token.
func JWTAuth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("JWTAuth: missing or malformed authorization header", "path", r.URL.Path)
				writeMessage(w, http.StatusUnauthorized, "authorization token is not provided")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				log.Warn("JWTAuth: token rejected", "path", r.URL.Path, "error", err)
				if errors.Is(err, jwt.ErrTokenExpired) {
					writeMessage(w, http.StatusUnauthorized, "token has expired")
					return
				}
				writeMessage(w, http.StatusUnauthorized, "token is invalid")
				return
			}
			if claims.UserID == "" {
				log.Warn("JWTAuth: user_id claim missing", "path", r.URL.Path)
				writeMessage(w, http.StatusUnauthorized, "user_id not found in token claims")
				return
			}

			ctx := WithPrincipal(r.Context(), domain.Principal{UserID: claims.UserID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LatencyObserver records request durations.
type LatencyObserver interface {
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
}

// RequestLogger logs each request after it completes and reports its
// latency by route pattern.
func RequestLogger(log *logger.Logger, observer LatencyObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			fields := []interface{}{
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed.String(),
				"request_id", middleware.GetReqID(r.Context()),
			}
			switch {
			case status >= 500:
				log.Error("HTTP request failed", fields...)
			case status >= 400:
				log.Warn("HTTP request rejected", fields...)
			default:
				log.Info("HTTP request served", fields...)
			}
			if observer != nil {
				observer.ObserveHTTP(route, r.Method, status, elapsed)
			}
		})
	}
}
