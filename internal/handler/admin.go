package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jobbridge/job-platform/internal/job"
	"github.com/jobbridge/job-platform/internal/middleware"
	"github.com/jobbridge/job-platform/internal/server"
	"github.com/jobbridge/job-platform/internal/user"

	"github.com/aclements/go-moremath/stats"
	"github.com/gorilla/mux"
)

// AdminLoginHandler signs an admin into the console. Admin sessions carry
// both the bearer token and a cookie session flag, and the middleware
// requires both.
func AdminLoginHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
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
			svr.Log(err, "unable to validate admin password")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if !ok {
			svr.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		u, err := userRepo.GetUser(req.Email)
		if err != nil {
			svr.Log(err, "unable to load admin user")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if !u.IsAdmin {
			svr.JSON(w, http.StatusForbidden, map[string]string{"error": "not an admin account"})
			return
		}
		sess, err := svr.SessionStore.Get(r, middleware.AdminSessionName)
		if err != nil {
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		sess.Values["is_admin"] = true
		if err := sess.Save(r, w); err != nil {
			svr.Log(err, "unable to save admin session cookie")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		ss, err := signUserToken(svr, u)
		if err != nil {
			svr.Log(err, "unable to sign admin jwt")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"token": ss, "user": u})
	}
}

// PromoteToAdminHandler grants the admin flag to an existing user. The
// caller must present the admin secret key.
func PromoteToAdminHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email     string `json:"email"`
			SecretKey string `json:"secretKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		if req.SecretKey != svr.GetConfig().AdminSecretKey {
			svr.JSON(w, http.StatusForbidden, map[string]string{"error": "invalid secret key"})
			return
		}
		if err := userRepo.PromoteToAdmin(req.Email); err != nil {
			svr.Log(err, "unable to promote user to admin")
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "unable to promote user"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "promoted"})
	}
}

// AdminUsersHandler lists user accounts, paginated.
func AdminUsersHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("p")
		pageID, err := strconv.Atoi(page)
		if err != nil || pageID < 1 {
			pageID = 1
		}
		perPage := svr.GetConfig().UsersPerPage
		users, total, err := userRepo.UsersByPage(pageID, perPage)
		if err != nil {
			svr.Log(err, "unable to retrieve users")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"users": users,
			"total": total,
			"page":  pageID,
			"pages": (total + perPage - 1) / perPage,
		})
	}
}

// AdminLockUserHandler locks a user account. The response states the
// outcome explicitly so the console can confirm it to the operator.
func AdminLockUserHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := userRepo.LockAccount(vars["id"]); err != nil {
			svr.Log(err, "unable to lock user account")
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"locked": false, "error": err.Error()})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"locked": true})
	}
}

func AdminUnlockUserHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := userRepo.UnlockAccount(vars["id"]); err != nil {
			svr.Log(err, "unable to unlock user account")
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"unlocked": false, "error": err.Error()})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"unlocked": true})
	}
}

// AdminDashboardHandler summarises the user base and the posted salary
// bands for the console landing page.
func AdminDashboardHandler(svr server.Server, userRepo *user.Repository, jobRepo *job.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userStats, err := userRepo.GetStatistics()
		if err != nil {
			svr.Log(err, "unable to retrieve user statistics")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		samples, err := jobRepo.SalarySamples()
		if err != nil {
			svr.Log(err, "unable to retrieve salary samples")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		var sampleMin, sampleMax stats.Sample
		for _, s := range samples {
			sampleMin.Xs = append(sampleMin.Xs, float64(s.Min))
			sampleMax.Xs = append(sampleMax.Xs, float64(s.Max))
		}
		salaryStats := map[string]float64{}
		if len(samples) > 0 {
			salaryStats["minMean"] = sampleMin.Mean()
			salaryStats["maxMean"] = sampleMax.Mean()
			salaryStats["minP50"] = sampleMin.Quantile(0.5)
			salaryStats["maxP50"] = sampleMax.Quantile(0.5)
			salaryStats["minP90"] = sampleMin.Quantile(0.9)
			salaryStats["maxP90"] = sampleMax.Quantile(0.9)
		}
		newJobsLastWeek, newJobsLastMonth, err := jobRepo.NewJobsLastWeekOrMonth()
		if err != nil {
			svr.Log(err, "unable to retrieve new job counts")
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"users":            userStats,
			"salaryStats":      salaryStats,
			"salarySampleSize": len(samples),
			"newJobsLastWeek":  newJobsLastWeek,
			"newJobsLastMonth": newJobsLastMonth,
		})
	}
}
