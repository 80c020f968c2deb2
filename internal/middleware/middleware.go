package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jobbridge/job-platform/internal/gzip"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	// AdminSessionName is the cookie session holding the admin console flag.
	AdminSessionName = "____jb_admin"
)

type UserJWT struct {
	IsAdmin   bool      `json:"is_admin"`
	IsCompany bool      `json:"is_company"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	jwt.StandardClaims
}

func HTTPSMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env != "dev" && r.Header.Get("X-Forwarded-Proto") != "https" {
			target := "https://" + r.Host + r.URL.Path
			http.Redirect(w, r, target, http.StatusMovedPermanently)
		}

		next.ServeHTTP(w, r)
	})
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
		logger.Info().
			Str("Host", r.Host).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Str("x-forwarded-for", r.Header.Get("x-forwarded-for")).
			Msg("req")
		next.ServeHTTP(w, r)
	})
}

func HeadersMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env != "dev" {
			w.Header().Set("Content-Security-Policy", "upgrade-insecure-requests")
			w.Header().Set("X-Frame-Options", "deny")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Referrer-Policy", "origin")
		}
		next.ServeHTTP(w, r)
	})
}

func GzipMiddleware(next http.Handler) http.Handler {
	return gzip.GzipHandler(next)
}

// GetUserFromRequest parses and validates the bearer token attached to the request.
func GetUserFromRequest(r *http.Request, jwtKey []byte) (*UserJWT, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("could not find authorization header")
	}
	tk := strings.TrimPrefix(authHeader, "Bearer ")
	if tk == authHeader {
		return nil, errors.New("authorization header is not a bearer token")
	}
	token, err := jwt.ParseWithClaims(tk, &UserJWT{}, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is expired")
	}
	claims, ok := token.Claims.(*UserJWT)
	if !ok {
		return nil, errors.New("could not convert jwt claims to UserJWT")
	}
	return claims, nil
}

func UserAuthenticatedMiddleware(jwtKey []byte, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := GetUserFromRequest(r, jwtKey)
		if err != nil || claims.Email == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	})
}

// AdminAuthenticatedMiddleware requires both a valid bearer token carrying the
// admin claim and the admin console session flag set at admin sign in.
func AdminAuthenticatedMiddleware(sessionStore *sessions.CookieStore, jwtKey []byte, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := GetUserFromRequest(r, jwtKey)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		sess, err := sessionStore.Get(r, AdminSessionName)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		isAdmin, ok := sess.Values["is_admin"].(bool)
		if !ok || !isAdmin {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	})
}
