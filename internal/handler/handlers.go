package handler

import (
	"fmt"
	"net/http"

	"github.com/jobbridge/job-platform/internal/server"
)

func HealthCheckHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svr.Conn.Ping(); err != nil {
			svr.Log(err, "database ping failed on healthcheck")
			svr.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		if err := svr.Redis.Ping(r.Context()).Err(); err != nil {
			svr.Log(err, "redis ping failed on healthcheck")
			svr.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func RobotsTxtHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := svr.GetConfig()
		svr.TEXT(w, http.StatusOK, fmt.Sprintf("User-agent: *\nDisallow: /api/admin/\n\nSitemap: %s%s/sitemap.xml\n", cfg.URLProtocol, cfg.SiteHost))
	}
}
