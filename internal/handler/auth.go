package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jobbridge/job-platform/internal/middleware"
	"github.com/jobbridge/job-platform/internal/server"
	"github.com/jobbridge/job-platform/internal/user"

	jwt "github.com/dgrijalva/jwt-go"
)

// SignUpHandler registers a new user account.
func SignUpHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
			Type     string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		if !svr.IsEmail(req.Email) {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
			return
		}
		if len(req.Password) < 8 {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
			return
		}
		if req.Type == "" {
			req.Type = user.UserTypeGeneral
		}
		if req.Type != user.UserTypeGeneral && req.Type != user.UserTypeCompany {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user type"})
			return
		}
		u, err := userRepo.CreateUser(req.Email, req.Name, req.Password, req.Type)
		if err != nil {
			svr.Log(err, "unable to create user")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": "unable to create user"})
			return
		}
		svr.JSON(w, http.StatusCreated, u)
	}
}

// SignInHandler validates credentials and issues a bearer token.
func SignInHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		ok, err := userRepo.ValidatePassword(req.Email, req.Password)
		if err != nil {
			svr.Log(err, "unable to validate password")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if !ok {
			svr.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		u, err := userRepo.GetUser(req.Email)
		if err != nil {
			svr.Log(err, "unable to load user after sign in")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if u.AccountLocked {
			svr.JSON(w, http.StatusForbidden, map[string]string{"error": "account is locked"})
			return
		}
		ss, err := signUserToken(svr, u)
		if err != nil {
			svr.Log(err, "unable to sign jwt")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"token": ss, "user": u})
	}
}

func signUserToken(svr server.Server, u user.User) (string, error) {
	stdClaims := &jwt.StandardClaims{
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour).UTC().Unix(),
		IssuedAt:  time.Now().UTC().Unix(),
		Issuer:    svr.GetConfig().URLProtocol + svr.GetConfig().SiteHost,
	}
	claims := middleware.UserJWT{
		UserID:         u.ID,
		Email:          u.Email,
		IsAdmin:        u.IsAdmin,
		IsCompany:      u.Type == user.UserTypeCompany,
		CreatedAt:      u.CreatedAt,
		StandardClaims: *stdClaims,
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tkn.SignedString(svr.GetJWTSigningKey())
}
