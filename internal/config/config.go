package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Config struct {
	Port              string
	DatabaseUser      string
	DatabasePassword  string
	DatabaseHost      string
	DatabasePort      string
	DatabaseName      string
	DatabaseSSLMode   string
	RedisAddress      string
	RedisPassword     string
	RedisDB           int
	KakaoPayBaseURL   string // kakaopay open api base url
	KakaoPayAdminKey  string // kakaopay admin key, sent as KakaoAK authorization
	KakaoPayCID       string // kakaopay merchant code (TC0ONETIME on sandbox)
	PaymentSuccessURL string // browser lands here after the provider approves
	PaymentCancelURL  string
	PaymentFailURL    string
	EmailAPIKey       string
	AdminEmail        string
	SupportEmail      string // displayed on the site for support queries
	NoReplyEmail      string // used for transactional emails
	AdminSecretKey    string // required to promote a user to admin
	SessionKey        []byte
	JwtSigningKey     []byte
	Env               string // either prod or dev, will disable https and few other bits
	JobsPerPage       int    // configures how many jobs are shown per page result
	UsersPerPage      int    // configures how many users are shown per admin page result
	MonthlyPlanAmount int64  // paid monthly subscription price in KRW
	SentryDSN         string
	SiteName          string
	SiteHost          string
	URLProtocol       string
	SupportedCurrency string // currency code used for job salary display
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	redisAddress := os.Getenv("REDIS_ADDRESS")
	if redisAddress == "" {
		return Config{}, fmt.Errorf("REDIS_ADDRESS cannot be empty")
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	var err error
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		redisDB, err = strconv.Atoi(redisDBStr)
		if err != nil {
			return Config{}, errors.Wrap(err, "unable to convert redis db to int")
		}
	}
	kakaoPayBaseURL := os.Getenv("KAKAOPAY_BASE_URL")
	if kakaoPayBaseURL == "" {
		kakaoPayBaseURL = "https://kapi.kakao.com"
	}
	kakaoPayAdminKey := os.Getenv("KAKAOPAY_ADMIN_KEY")
	if kakaoPayAdminKey == "" {
		return Config{}, fmt.Errorf("KAKAOPAY_ADMIN_KEY cannot be empty")
	}
	kakaoPayCID := os.Getenv("KAKAOPAY_CID")
	if kakaoPayCID == "" {
		return Config{}, fmt.Errorf("KAKAOPAY_CID cannot be empty")
	}
	paymentSuccessURL := os.Getenv("PAYMENT_SUCCESS_URL")
	if paymentSuccessURL == "" {
		return Config{}, fmt.Errorf("PAYMENT_SUCCESS_URL cannot be empty")
	}
	paymentCancelURL := os.Getenv("PAYMENT_CANCEL_URL")
	if paymentCancelURL == "" {
		return Config{}, fmt.Errorf("PAYMENT_CANCEL_URL cannot be empty")
	}
	paymentFailURL := os.Getenv("PAYMENT_FAIL_URL")
	if paymentFailURL == "" {
		return Config{}, fmt.Errorf("PAYMENT_FAIL_URL cannot be empty")
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" {
		return Config{}, fmt.Errorf("EMAIL_API_KEY cannot be empty")
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL cannot be empty")
	}
	supportEmail := os.Getenv("SUPPORT_EMAIL")
	if supportEmail == "" {
		return Config{}, fmt.Errorf("SUPPORT_EMAIL cannot be empty")
	}
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty")
	}
	adminSecretKey := os.Getenv("ADMIN_SECRET_KEY")
	if adminSecretKey == "" {
		return Config{}, fmt.Errorf("ADMIN_SECRET_KEY cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKey)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	jobsPerPage := 20
	if jobsPerPageStr := os.Getenv("JOBS_PER_PAGE"); jobsPerPageStr != "" {
		jobsPerPage, err = strconv.Atoi(jobsPerPageStr)
		if err != nil {
			return Config{}, fmt.Errorf("could not convert ascii to int: %v", err)
		}
	}
	usersPerPage := 20
	if usersPerPageStr := os.Getenv("USERS_PER_PAGE"); usersPerPageStr != "" {
		usersPerPage, err = strconv.Atoi(usersPerPageStr)
		if err != nil {
			return Config{}, fmt.Errorf("could not convert ascii to int: %v", err)
		}
	}
	var monthlyPlanAmount int64 = 9900
	if monthlyPlanAmountStr := os.Getenv("MONTHLY_PLAN_AMOUNT"); monthlyPlanAmountStr != "" {
		monthlyPlanAmount, err = strconv.ParseInt(monthlyPlanAmountStr, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("could not convert ascii to int: %v", err)
		}
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		return Config{}, fmt.Errorf("SITE_NAME cannot be empty")
	}
	siteHost := os.Getenv("SITE_HOST")
	if siteHost == "" {
		return Config{}, fmt.Errorf("SITE_HOST cannot be empty")
	}
	urlProtocol := "https://"
	if env == "dev" {
		urlProtocol = "http://"
	}
	supportedCurrency := os.Getenv("SUPPORTED_CURRENCY")
	if supportedCurrency == "" {
		supportedCurrency = "KRW"
	}

	return Config{
		Port:              port,
		DatabaseUser:      databaseUser,
		DatabasePassword:  databasePassword,
		DatabaseHost:      databaseHost,
		DatabasePort:      databasePort,
		DatabaseName:      databaseName,
		DatabaseSSLMode:   databaseSSLMode,
		RedisAddress:      redisAddress,
		RedisPassword:     redisPassword,
		RedisDB:           redisDB,
		KakaoPayBaseURL:   kakaoPayBaseURL,
		KakaoPayAdminKey:  kakaoPayAdminKey,
		KakaoPayCID:       kakaoPayCID,
		PaymentSuccessURL: paymentSuccessURL,
		PaymentCancelURL:  paymentCancelURL,
		PaymentFailURL:    paymentFailURL,
		EmailAPIKey:       emailAPIKey,
		AdminEmail:        adminEmail,
		SupportEmail:      supportEmail,
		NoReplyEmail:      noReplyEmail,
		AdminSecretKey:    adminSecretKey,
		SessionKey:        sessionKeyBytes,
		JwtSigningKey:     jwtSigningKeyBytes,
		Env:               env,
		JobsPerPage:       jobsPerPage,
		UsersPerPage:      usersPerPage,
		MonthlyPlanAmount: monthlyPlanAmount,
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SiteName:          siteName,
		SiteHost:          siteHost,
		URLProtocol:       urlProtocol,
		SupportedCurrency: supportedCurrency,
	}, nil
}
