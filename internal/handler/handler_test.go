package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jobbridge/job-platform/internal/application"
	"github.com/jobbridge/job-platform/internal/config"
	"github.com/jobbridge/job-platform/internal/email"
	"github.com/jobbridge/job-platform/internal/job"
	"github.com/jobbridge/job-platform/internal/middleware"
	"github.com/jobbridge/job-platform/internal/payment"
	"github.com/jobbridge/job-platform/internal/server"
	"github.com/jobbridge/job-platform/internal/subscription"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Port:              "8080",
		Env:               "dev",
		JwtSigningKey:     []byte("test-jwt-signing-key"),
		SessionKey:        []byte("test-session-key-32-bytes-long!!"),
		AdminSecretKey:    "test-admin-secret",
		SiteName:          "JobBridge",
		SiteHost:          "jobbridge.test",
		URLProtocol:       "http://",
		SupportEmail:      "support@jobbridge.test",
		NoReplyEmail:      "noreply@jobbridge.test",
		JobsPerPage:       20,
		UsersPerPage:      20,
		MonthlyPlanAmount: 9900,
	}
}

func newTestServer(t *testing.T) (server.Server, sqlmock.Sqlmock, *redis.Client) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisConn := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	emailClient, err := email.NewClient("", cfg.SupportEmail, cfg.NoReplyEmail, cfg.SiteName)
	require.NoError(t, err)
	svr := server.NewServer(cfg, db, redisConn, mux.NewRouter(), emailClient, sessions.NewCookieStore(cfg.SessionKey))
	return svr, mock, redisConn
}

func bearerToken(t *testing.T, svr server.Server, userID, userEmail string) string {
	t.Helper()
	claims := middleware.UserJWT{
		UserID: userID,
		Email:  userEmail,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).UTC().Unix(),
			IssuedAt:  time.Now().UTC().Unix(),
		},
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := tkn.SignedString(svr.GetJWTSigningKey())
	require.NoError(t, err)
	return "Bearer " + ss
}

func TestDraftHandlersRoundTrip(t *testing.T) {
	svr, _, redisConn := newTestServer(t)
	drafts := application.NewDraftStore(redisConn)
	token := bearerToken(t, svr, "user-1", "jane@example.com")

	body, err := json.Marshal(map[string]string{"coverLetter": "draft in progress"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/applications/draft/job-abc", bytes.NewReader(body))
	req.Header.Set("Authorization", token)
	req = mux.SetURLVars(req, map[string]string{"jobID": "job-abc"})
	rec := httptest.NewRecorder()
	SaveDraftHandler(svr, drafts)(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/applications/draft/job-abc", nil)
	req.Header.Set("Authorization", token)
	req = mux.SetURLVars(req, map[string]string{"jobID": "job-abc"})
	rec = httptest.NewRecorder()
	GetDraftHandler(svr, drafts)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "draft in progress", res["coverLetter"])

	req = httptest.NewRequest(http.MethodDelete, "/api/applications/draft/job-abc", nil)
	req.Header.Set("Authorization", token)
	req = mux.SetURLVars(req, map[string]string{"jobID": "job-abc"})
	rec = httptest.NewRecorder()
	DeleteDraftHandler(svr, drafts)(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDraftHandlersRequireAuth(t *testing.T) {
	svr, _, redisConn := newTestServer(t)
	drafts := application.NewDraftStore(redisConn)

	req := httptest.NewRequest(http.MethodGet, "/api/applications/draft/job-abc", nil)
	rec := httptest.NewRecorder()
	GetDraftHandler(svr, drafts)(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func jobPostRows(j job.JobPost) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "external_id", "job_title", "company", "company_email", "location",
		"description", "salary_min", "salary_max", "salary_currency", "slug",
		"experience_level", "created_at", "approved_at", "closed_at",
	}).AddRow(
		j.ID, j.ExternalID, j.JobTitle, j.Company, j.CompanyEmail, j.Location,
		j.Description, j.SalaryMin, j.SalaryMax, j.SalaryCurrency, j.Slug,
		j.ExperienceLevel, j.CreatedAt, j.ApprovedAt, j.ClosedAt,
	)
}

func TestApplyToJobRejectsEmptyCoverLetter(t *testing.T) {
	svr, mock, redisConn := newTestServer(t)

	now := time.Now().UTC()
	approved := now.Add(-time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM job WHERE external_id").
		WithArgs("job-abc").
		WillReturnRows(jobPostRows(job.JobPost{
			ID: 42, ExternalID: "job-abc", JobTitle: "Backend Engineer", Company: "Acme",
			SalaryCurrency: "KRW", Slug: "backend-engineer", ExperienceLevel: "any",
			CreatedAt: now, ApprovedAt: &approved,
		}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("cover_letter", "   "))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/job-abc/apply", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearerToken(t, svr, "user-1", "jane@example.com"))
	req = mux.SetURLVars(req, map[string]string{"jobID": "job-abc"})
	rec := httptest.NewRecorder()

	ApplyToJobHandler(svr, job.NewRepository(svr.Conn), application.NewRepository(svr.Conn), application.NewDraftStore(redisConn))(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cover letter")
}

func TestApplyToJobSubmitsAndClearsDraft(t *testing.T) {
	svr, mock, redisConn := newTestServer(t)
	drafts := application.NewDraftStore(redisConn)
	token := bearerToken(t, svr, "user-1", "jane@example.com")

	now := time.Now().UTC()
	approved := now.Add(-time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM job WHERE external_id").
		WithArgs("job-abc").
		WillReturnRows(jobPostRows(job.JobPost{
			ID: 42, ExternalID: "job-abc", JobTitle: "Backend Engineer", Company: "Acme",
			SalaryCurrency: "KRW", Slug: "backend-engineer", ExperienceLevel: "any",
			CreatedAt: now, ApprovedAt: &approved,
		}))
	mock.ExpectExec("INSERT INTO application").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, drafts.Save(context.Background(), "user-1", "job-abc", "draft text"))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("cover_letter", "I would like to apply."))
	require.NoError(t, mw.Close())

	httpReq := httptest.NewRequest(http.MethodPost, "/api/jobs/job-abc/apply", &buf)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", token)
	httpReq = mux.SetURLVars(httpReq, map[string]string{"jobID": "job-abc"})
	rec := httptest.NewRecorder()

	ApplyToJobHandler(svr, job.NewRepository(svr.Conn), application.NewRepository(svr.Conn), drafts)(rec, httpReq)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())

	text, err := drafts.Load(context.Background(), "user-1", "job-abc")
	require.NoError(t, err)
	assert.Empty(t, text, "draft should be cleared after a successful submit")
}

func TestApplyToJobRejectsUnapprovedJob(t *testing.T) {
	svr, mock, redisConn := newTestServer(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM job WHERE external_id").
		WithArgs("job-abc").
		WillReturnRows(jobPostRows(job.JobPost{
			ID: 42, ExternalID: "job-abc", JobTitle: "Backend Engineer", Company: "Acme",
			SalaryCurrency: "KRW", Slug: "backend-engineer", ExperienceLevel: "any",
			CreatedAt: now,
		}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("cover_letter", "I would like to apply."))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/job-abc/apply", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearerToken(t, svr, "user-1", "jane@example.com"))
	req = mux.SetURLVars(req, map[string]string{"jobID": "job-abc"})
	rec := httptest.NewRecorder()

	ApplyToJobHandler(svr, job.NewRepository(svr.Conn), application.NewRepository(svr.Conn), application.NewDraftStore(redisConn))(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "job not found")
}

func TestApplyToJobRejectsMalformedForm(t *testing.T) {
	svr, mock, redisConn := newTestServer(t)

	now := time.Now().UTC()
	approved := now.Add(-time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM job WHERE external_id").
		WithArgs("job-abc").
		WillReturnRows(jobPostRows(job.JobPost{
			ID: 42, ExternalID: "job-abc", JobTitle: "Backend Engineer", Company: "Acme",
			SalaryCurrency: "KRW", Slug: "backend-engineer", ExperienceLevel: "any",
			CreatedAt: now, ApprovedAt: &approved,
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/job-abc/apply", strings.NewReader("this is not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=deadbeef")
	req.Header.Set("Authorization", bearerToken(t, svr, "user-1", "jane@example.com"))
	req = mux.SetURLVars(req, map[string]string{"jobID": "job-abc"})
	rec := httptest.NewRecorder()

	ApplyToJobHandler(svr, job.NewRepository(svr.Conn), application.NewRepository(svr.Conn), application.NewDraftStore(redisConn))(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "a malformed body is a bad request, not an oversize one")
	assert.Contains(t, rec.Body.String(), "unable to parse application form")
}

func TestApplyToJobInvalidatesCachedViews(t *testing.T) {
	svr, mock, redisConn := newTestServer(t)
	drafts := application.NewDraftStore(redisConn)
	token := bearerToken(t, svr, "user-1", "jane@example.com")

	now := time.Now().UTC()
	approved := now.Add(-time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM job WHERE external_id").
		WithArgs("job-abc").
		WillReturnRows(jobPostRows(job.JobPost{
			ID: 42, ExternalID: "job-abc", JobTitle: "Backend Engineer", Company: "Acme",
			SalaryCurrency: "KRW", Slug: "backend-engineer", ExperienceLevel: "any",
			CreatedAt: now, ApprovedAt: &approved,
		}))
	mock.ExpectExec("INSERT INTO application").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svr.CacheSet(server.CacheKeyMyApplicationsPrefix+"user-1", []byte(`[]`)))
	require.NoError(t, svr.CacheSet(server.CacheKeyJobApplicantsPrefix+"42", []byte(`[]`)))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("cover_letter", "I would like to apply."))
	require.NoError(t, mw.Close())

	httpReq := httptest.NewRequest(http.MethodPost, "/api/jobs/job-abc/apply", &buf)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", token)
	httpReq = mux.SetURLVars(httpReq, map[string]string{"jobID": "job-abc"})
	rec := httptest.NewRecorder()

	ApplyToJobHandler(svr, job.NewRepository(svr.Conn), application.NewRepository(svr.Conn), drafts)(rec, httpReq)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, ok := svr.CacheGet(server.CacheKeyMyApplicationsPrefix + "user-1")
	assert.False(t, ok, "my applications view should be invalidated after a submit")
	_, ok = svr.CacheGet(server.CacheKeyJobApplicantsPrefix + "42")
	assert.False(t, ok, "job applicants view should be invalidated after a submit")
}

func TestKakaoApproveGuardSkipsProvider(t *testing.T) {
	svr, _, redisConn := newTestServer(t)
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called when the payment session is missing")
	}))
	defer provider.Close()

	kakao := payment.NewKakaoClient(provider.URL, "admin-key", "TC0ONETIME")
	paymentSessions := payment.NewSessionStore(redisConn)
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	subRepo := subscription.NewRepository(db)

	body, err := json.Marshal(map[string]string{"pgToken": "pg-token-1"})
	require.NoError(t, err)
	httpReq := httptest.NewRequest(http.MethodPost, "/api/payment/kakao/approve", bytes.NewReader(body))
	httpReq.Header.Set("Authorization", bearerToken(t, svr, "user-1", "jane@example.com"))
	rec := httptest.NewRecorder()

	KakaoPayApproveHandler(svr, kakao, paymentSessions, subRepo)(rec, httpReq)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "결제 정보가 올바르지 않습니다.")
}

func TestKakaoApproveGuardRequiresPgToken(t *testing.T) {
	svr, _, redisConn := newTestServer(t)
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called without a pg token")
	}))
	defer provider.Close()

	paymentSessions := payment.NewSessionStore(redisConn)
	require.NoError(t, paymentSessions.Store(context.Background(), "user-1", "ORDER_1", "T1234"))

	kakao := payment.NewKakaoClient(provider.URL, "admin-key", "TC0ONETIME")
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	body, err := json.Marshal(map[string]string{"pgToken": ""})
	require.NoError(t, err)
	httpReq := httptest.NewRequest(http.MethodPost, "/api/payment/kakao/approve", bytes.NewReader(body))
	httpReq.Header.Set("Authorization", bearerToken(t, svr, "user-1", "jane@example.com"))
	rec := httptest.NewRecorder()

	KakaoPayApproveHandler(svr, kakao, paymentSessions, subscription.NewRepository(db))(rec, httpReq)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "결제 정보가 올바르지 않습니다.")
}

func TestKakaoApproveClearsSessionAndActivates(t *testing.T) {
	svr, mock, redisConn := newTestServer(t)
	token := bearerToken(t, svr, "user-1", "jane@example.com")

	var approveCalls int
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		approveCalls++
		assert.Equal(t, "/v1/payment/approve", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "pg-token-1", r.FormValue("pg_token"))
		assert.Equal(t, "ORDER_1", r.FormValue("partner_order_id"))
		assert.Equal(t, "T1234", r.FormValue("tid"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aid":"A1","tid":"T1234","partner_order_id":"ORDER_1","partner_user_id":"user-1","item_name":"월 정액제","quantity":1,"payment_method_type":"MONEY","amount":{"total":9900,"tax_free":0,"vat":900},"approved_at":"2026-08-31T12:00:00"}`))
	}))
	defer provider.Close()

	kakao := payment.NewKakaoClient(provider.URL, "admin-key", "TC0ONETIME")
	paymentSessions := payment.NewSessionStore(redisConn)
	require.NoError(t, paymentSessions.Store(context.Background(), "user-1", "ORDER_1", "T1234"))

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM subscription WHERE order_id").
		WithArgs("ORDER_1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "plan_type", "status", "start_date", "end_date", "amount",
			"payment_method", "kakao_tid", "order_id", "academy_name", "academy_verified",
			"created_at", "cancelled_at",
		}).AddRow(
			"sub-1", "user-1", string(subscription.PlanPaidMonthly), string(subscription.StatusExpired),
			now, now, 9900, "kakaopay", "T1234", "ORDER_1", "", false, now, nil,
		))
	mock.ExpectExec("UPDATE subscription SET status").
		WithArgs(string(subscription.StatusActive), sqlmock.AnyArg(), sqlmock.AnyArg(), "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	subRepo := subscription.NewRepository(svr.Conn)
	handler := KakaoPayApproveHandler(svr, kakao, paymentSessions, subRepo)

	body, err := json.Marshal(map[string]string{"pgToken": "pg-token-1"})
	require.NoError(t, err)
	httpReq := httptest.NewRequest(http.MethodPost, "/api/payment/kakao/approve", bytes.NewReader(body))
	httpReq.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	handler(rec, httpReq)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())

	var res struct {
		ItemName  string    `json:"itemName"`
		Amount    int       `json:"amount"`
		StartDate time.Time `json:"startDate"`
		EndDate   time.Time `json:"endDate"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "월 정액제", res.ItemName)
	assert.Equal(t, 9900, res.Amount)
	assert.Equal(t, res.StartDate.AddDate(0, 1, 0), res.EndDate)

	orderID, tid, err := paymentSessions.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, orderID, "order id must be gone after a successful approval")
	assert.Empty(t, tid, "tid must be gone after a successful approval")

	// a replay finds no payment session and never reaches the provider
	httpReq = httptest.NewRequest(http.MethodPost, "/api/payment/kakao/approve", bytes.NewReader(body))
	httpReq.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	handler(rec, httpReq)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "결제 정보가 올바르지 않습니다.")
	assert.Equal(t, 1, approveCalls)
}

func TestAcademyCheckHandler(t *testing.T) {
	svr, _, _ := newTestServer(t)
	tests := []struct {
		code     string
		eligible bool
	}{
		{code: "soldeskjongro", eligible: true},
		{code: "soldesk2024", eligible: true},
		{code: "nope", eligible: false},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"couponCode": tc.code})
			require.NoError(t, err)
			httpReq := httptest.NewRequest(http.MethodPost, "/api/payment/academy/check", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			AcademyCheckHandler(svr)(rec, httpReq)
			require.Equal(t, http.StatusOK, rec.Code)
			var res struct {
				Eligible bool `json:"eligible"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, tc.eligible, res.Eligible)
		})
	}
}
