package main

import (
	"log"

	"github.com/jobbridge/job-platform/internal/application"
	"github.com/jobbridge/job-platform/internal/config"
	"github.com/jobbridge/job-platform/internal/database"
	"github.com/jobbridge/job-platform/internal/email"
	"github.com/jobbridge/job-platform/internal/handler"
	"github.com/jobbridge/job-platform/internal/job"
	"github.com/jobbridge/job-platform/internal/middleware"
	"github.com/jobbridge/job-platform/internal/payment"
	"github.com/jobbridge/job-platform/internal/server"
	"github.com/jobbridge/job-platform/internal/subscription"
	"github.com/jobbridge/job-platform/internal/user"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
	}
	conn, err := database.GetDbConn(
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)
	redisConn, err := database.GetRedisConn(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("unable to connect to redis: %v", err)
	}
	emailClient, err := email.NewClient(cfg.EmailAPIKey, cfg.SupportEmail, cfg.NoReplyEmail, cfg.SiteName)
	if err != nil {
		log.Fatalf("unable to initialise email client: %v", err)
	}
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)

	svr := server.NewServer(
		cfg,
		conn,
		redisConn,
		mux.NewRouter(),
		emailClient,
		sessionStore,
	)

	userRepo := user.NewRepository(conn)
	jobRepo := job.NewRepository(conn)
	appRepo := application.NewRepository(conn)
	subRepo := subscription.NewRepository(conn)
	draftStore := application.NewDraftStore(redisConn)
	paymentSessions := payment.NewSessionStore(redisConn)
	kakaoClient := payment.NewKakaoClient(cfg.KakaoPayBaseURL, cfg.KakaoPayAdminKey, cfg.KakaoPayCID)

	jwtKey := svr.GetJWTSigningKey()

	svr.RegisterRoute("/health", handler.HealthCheckHandler(svr), []string{"GET"})
	svr.RegisterRoute("/robots.txt", handler.RobotsTxtHandler(svr), []string{"GET"})
	svr.RegisterRoute("/sitemap.xml", handler.SitemapHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/rss", handler.ServeRSSFeed(svr, jobRepo), []string{"GET"})

	// auth routes
	svr.RegisterRoute("/api/auth/signup", handler.SignUpHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/api/auth/signin", handler.SignInHandler(svr, userRepo), []string{"POST"})

	// job routes
	svr.RegisterRoute("/api/jobs", handler.JobsHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/jobs", middleware.UserAuthenticatedMiddleware(jwtKey, handler.PostJobHandler(svr, jobRepo)), []string{"POST"})
	svr.RegisterRoute("/api/jobs/{slug}", handler.JobBySlugHandler(svr, jobRepo), []string{"GET"})

	// application wizard routes
	svr.RegisterRoute("/api/applications/draft/{jobID}", middleware.UserAuthenticatedMiddleware(jwtKey, handler.GetDraftHandler(svr, draftStore)), []string{"GET"})
	svr.RegisterRoute("/api/applications/draft/{jobID}", middleware.UserAuthenticatedMiddleware(jwtKey, handler.SaveDraftHandler(svr, draftStore)), []string{"PUT"})
	svr.RegisterRoute("/api/applications/draft/{jobID}", middleware.UserAuthenticatedMiddleware(jwtKey, handler.DeleteDraftHandler(svr, draftStore)), []string{"DELETE"})
	svr.RegisterRoute("/api/jobs/{jobID}/apply", middleware.UserAuthenticatedMiddleware(jwtKey, handler.ApplyToJobHandler(svr, jobRepo, appRepo, draftStore)), []string{"POST"})
	svr.RegisterRoute("/api/applications", middleware.UserAuthenticatedMiddleware(jwtKey, handler.MyApplicationsHandler(svr, appRepo)), []string{"GET"})
	svr.RegisterRoute("/api/jobs/{jobID}/applicants", middleware.UserAuthenticatedMiddleware(jwtKey, handler.JobApplicantsHandler(svr, jobRepo, appRepo)), []string{"GET"})
	svr.RegisterRoute("/api/applications/{id}/resume", middleware.UserAuthenticatedMiddleware(jwtKey, handler.DownloadResumeHandler(svr, appRepo)), []string{"GET"})

	// payment routes
	svr.RegisterRoute("/api/payment/kakao/ready", middleware.UserAuthenticatedMiddleware(jwtKey, handler.KakaoPayReadyHandler(svr, kakaoClient, paymentSessions, subRepo)), []string{"POST"})
	svr.RegisterRoute("/api/payment/kakao/approve", middleware.UserAuthenticatedMiddleware(jwtKey, handler.KakaoPayApproveHandler(svr, kakaoClient, paymentSessions, subRepo)), []string{"POST"})
	svr.RegisterRoute("/api/payment/subscription/current", middleware.UserAuthenticatedMiddleware(jwtKey, handler.CurrentSubscriptionHandler(svr, subRepo)), []string{"GET"})
	svr.RegisterRoute("/api/payment/subscription/{id}/cancel", middleware.UserAuthenticatedMiddleware(jwtKey, handler.CancelSubscriptionHandler(svr, subRepo)), []string{"POST"})
	svr.RegisterRoute("/api/payment/academy/check", handler.AcademyCheckHandler(svr), []string{"POST"})
	svr.RegisterRoute("/api/payment/academy/subscribe", middleware.UserAuthenticatedMiddleware(jwtKey, handler.AcademySubscribeHandler(svr, subRepo)), []string{"POST"})

	// admin routes
	svr.RegisterRoute("/api/admin/login", handler.AdminLoginHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/api/admin/promote", handler.PromoteToAdminHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/api/admin/users", middleware.AdminAuthenticatedMiddleware(sessionStore, jwtKey, handler.AdminUsersHandler(svr, userRepo)), []string{"GET"})
	svr.RegisterRoute("/api/admin/users/{id}/lock", middleware.AdminAuthenticatedMiddleware(sessionStore, jwtKey, handler.AdminLockUserHandler(svr, userRepo)), []string{"POST"})
	svr.RegisterRoute("/api/admin/users/{id}/unlock", middleware.AdminAuthenticatedMiddleware(sessionStore, jwtKey, handler.AdminUnlockUserHandler(svr, userRepo)), []string{"POST"})
	svr.RegisterRoute("/api/admin/dashboard", middleware.AdminAuthenticatedMiddleware(sessionStore, jwtKey, handler.AdminDashboardHandler(svr, userRepo, jobRepo)), []string{"GET"})
	svr.RegisterRoute("/api/admin/jobs/{id}/approve", middleware.AdminAuthenticatedMiddleware(sessionStore, jwtKey, handler.ApproveJobHandler(svr, jobRepo)), []string{"POST"})
	svr.RegisterRoute("/api/admin/jobs/{id}/close", middleware.AdminAuthenticatedMiddleware(sessionStore, jwtKey, handler.CloseJobHandler(svr, jobRepo)), []string{"POST"})

	log.Fatal(svr.Run())
}
