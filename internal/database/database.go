package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Table Structure:
//
// CREATE TABLE IF NOT EXISTS users (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	email VARCHAR(255) NOT NULL UNIQUE,
// 	name VARCHAR(255) NOT NULL,
// 	password_hash VARCHAR(255) NOT NULL,
// 	user_type VARCHAR(20) NOT NULL DEFAULT 'general',
// 	account_locked BOOLEAN NOT NULL DEFAULT FALSE,
// 	created_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
//
// CREATE TABLE IF NOT EXISTS job (
// 	id SERIAL PRIMARY KEY,
// 	external_id CHAR(27) NOT NULL UNIQUE,
// 	job_title VARCHAR(128) NOT NULL,
// 	company VARCHAR(128) NOT NULL,
// 	company_email VARCHAR(255) NOT NULL,
// 	location VARCHAR(200) NOT NULL,
// 	description TEXT NOT NULL,
// 	salary_min INTEGER NOT NULL,
// 	salary_max INTEGER NOT NULL,
// 	salary_currency CHAR(3) NOT NULL DEFAULT 'KRW',
// 	slug VARCHAR(256) NOT NULL UNIQUE,
// 	experience_level VARCHAR(30) NOT NULL DEFAULT 'any',
// 	created_at TIMESTAMP NOT NULL,
// 	approved_at TIMESTAMP DEFAULT NULL,
// 	closed_at TIMESTAMP DEFAULT NULL
// );
//
// CREATE TABLE IF NOT EXISTS application (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	job_id INTEGER NOT NULL REFERENCES job(id),
// 	user_id CHAR(27) NOT NULL REFERENCES users(id),
// 	cover_letter TEXT NOT NULL,
// 	resume BYTEA DEFAULT NULL,
// 	resume_filename VARCHAR(255) DEFAULT NULL,
// 	created_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id),
// 	UNIQUE(job_id, user_id)
// );
// CREATE INDEX application_user_id_idx on application (user_id);
//
// CREATE TABLE IF NOT EXISTS subscription (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	user_id CHAR(27) NOT NULL REFERENCES users(id),
// 	plan_type VARCHAR(20) NOT NULL,
// 	status VARCHAR(12) NOT NULL,
// 	start_date TIMESTAMP NOT NULL,
// 	end_date TIMESTAMP NOT NULL,
// 	amount BIGINT NOT NULL DEFAULT 0,
// 	payment_method VARCHAR(50) NOT NULL DEFAULT 'KAKAOPAY',
// 	kakao_tid VARCHAR(255) DEFAULT NULL,
// 	order_id VARCHAR(255) DEFAULT NULL UNIQUE,
// 	academy_name VARCHAR(255) DEFAULT NULL,
// 	academy_verified BOOLEAN NOT NULL DEFAULT FALSE,
// 	created_at TIMESTAMP NOT NULL,
// 	cancelled_at TIMESTAMP DEFAULT NULL,
// 	PRIMARY KEY(id)
// );
// CREATE INDEX subscription_user_id_idx on subscription (user_id);

// GetDbConn tries to establish a connection to postgres and return the connection handler
func GetDbConn(databaseUser string, databasePassword string, databaseHost string, databasePort string, databaseName string, sslMode string) (*sql.DB, error) {
	db, err := sql.Open(
		"postgres",
		fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			databaseUser,
			databasePassword,
			databaseHost,
			databasePort,
			databaseName,
			sslMode,
		),
	)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}
