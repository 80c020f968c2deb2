package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/jobbridge/job-platform/internal/config"
	"github.com/jobbridge/job-platform/internal/email"
	"github.com/jobbridge/job-platform/internal/middleware"

	"github.com/allegro/bigcache/v3"
	"github.com/getsentry/raven-go"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	CacheKeyMyApplicationsPrefix = "myApplications:"
	CacheKeyJobApplicantsPrefix  = "jobApplicants:"
)

type Server struct {
	cfg          config.Config
	Conn         *sql.DB
	Redis        *redis.Client
	router       *mux.Router
	emailClient  email.Client
	SessionStore *sessions.CookieStore
	bigCache     *bigcache.BigCache
	emailRe      *regexp.Regexp
}

func NewServer(
	cfg config.Config,
	conn *sql.DB,
	redisConn *redis.Client,
	r *mux.Router,
	emailClient email.Client,
	sessionStore *sessions.CookieStore,
) Server {
	// todo: move somewhere else
	raven.SetDSN(cfg.SentryDSN)

	bigCache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(12*time.Hour))
	svr := Server{
		cfg:          cfg,
		Conn:         conn,
		Redis:        redisConn,
		router:       r,
		emailClient:  emailClient,
		SessionStore: sessionStore,
		bigCache:     bigCache,
		emailRe:      regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$"),
	}
	if err != nil {
		svr.Log(err, "unable to initialise big cache")
	}

	return svr
}

func (s Server) RegisterRoute(path string, handler func(w http.ResponseWriter, r *http.Request), methods []string) {
	s.router.HandleFunc(path, handler).Methods(methods...)
}

func (s Server) RegisterPathPrefix(path string, handler http.Handler, methods []string) {
	s.router.PathPrefix(path).Handler(handler).Methods(methods...)
}

func (s Server) GetConfig() config.Config {
	return s.cfg
}

func (s Server) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (s Server) XML(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	w.Write(data)
}

func (s Server) TEXT(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

// MEDIA writes an attachment download response, used for resume retrieval.
func (s Server) MEDIA(w http.ResponseWriter, status int, media []byte, mediaType string) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "max-age=31536000")
	w.WriteHeader(status)
	w.Write(media)
}

func (s Server) Log(err error, msg string) {
	raven.CaptureErrorAndWait(err, map[string]string{"ctx": msg})
	log.Printf("%s: %+v", msg, err)
}

func (s Server) GetEmail() email.Client {
	return s.emailClient
}

func (s Server) Redirect(w http.ResponseWriter, r *http.Request, status int, dst string) {
	http.Redirect(w, r, dst, status)
}

func (s Server) GetJWTSigningKey() []byte {
	return s.cfg.JwtSigningKey
}

func (s Server) CacheGet(key string) ([]byte, bool) {
	out, err := s.bigCache.Get(key)
	if err != nil {
		return []byte{}, false
	}
	return out, true
}

func (s Server) CacheSet(key string, val []byte) error {
	return s.bigCache.Set(key, val)
}

func (s Server) CacheDelete(key string) error {
	return s.bigCache.Delete(key)
}

func (s Server) IsEmail(val string) bool {
	return s.emailRe.MatchString(val)
}

func (s Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	if s.cfg.Env == "dev" {
		log.Printf("local env http://localhost:%s", s.cfg.Port)
		addr = fmt.Sprintf("localhost:%s", s.cfg.Port)
	}
	srv := &http.Server{
		Addr: addr,
		Handler: middleware.HTTPSMiddleware(
			middleware.GzipMiddleware(
				middleware.LoggingMiddleware(middleware.HeadersMiddleware(s.router, s.cfg.Env)),
			),
			s.cfg.Env,
		),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return srv.ListenAndServe()
}
