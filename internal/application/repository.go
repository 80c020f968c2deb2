package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lib/pq"
	"github.com/segmentio/ksuid"
)

var ErrAlreadyApplied = errors.New("an application for this job already exists")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SubmitApplication persists an accepted submission as a single insert.
// The unique (job_id, user_id) index backs the duplicate guard across
// concurrent submissions.
func (r *Repository) SubmitApplication(ctx context.Context, sub Submission) (Application, error) {
	app := Application{
		ID:          ksuid.New().String(),
		JobID:       sub.JobID,
		UserID:      sub.UserID,
		CoverLetter: sub.CoverLetter,
		CreatedAt:   time.Now().UTC(),
	}
	var resumeFilename sql.NullString
	var resumeData []byte
	if sub.Resume != nil {
		app.ResumeFilename = sub.Resume.Filename
		app.ResumeSize = int(sub.Resume.SizeBytes)
		resumeFilename = sql.NullString{String: sub.Resume.Filename, Valid: true}
		resumeData = sub.Resume.Data
	}
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO application (id, job_id, user_id, cover_letter, resume_filename, resume, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		app.ID,
		app.JobID,
		app.UserID,
		app.CoverLetter,
		resumeFilename,
		resumeData,
		app.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return Application{}, ErrAlreadyApplied
		}
		return Application{}, err
	}
	return app, nil
}

// ApplicationsByUser lists a user's submitted applications, newest first,
// with the job title and company joined in.
func (r *Repository) ApplicationsByUser(ctx context.Context, userID string) ([]Application, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT a.id, a.job_id, a.user_id, a.cover_letter, COALESCE(a.resume_filename, ''), a.created_at, j.job_title, j.company
		FROM application a JOIN job j ON j.id = a.job_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var apps []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(&app.ID, &app.JobID, &app.UserID, &app.CoverLetter, &app.ResumeFilename, &app.CreatedAt, &app.JobTitle, &app.Company); err != nil {
			return apps, err
		}
		app.CreatedAtHumanised = humanize.Time(app.CreatedAt)
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// ApplicantsForJob lists applications for a job posting, newest first,
// with the applicant email and name joined in.
func (r *Repository) ApplicantsForJob(ctx context.Context, jobID int) ([]Application, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT a.id, a.job_id, a.user_id, a.cover_letter, COALESCE(a.resume_filename, ''), a.created_at, u.email, u.name
		FROM application a JOIN users u ON u.id = a.user_id
		WHERE a.job_id = $1
		ORDER BY a.created_at DESC`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var apps []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(&app.ID, &app.JobID, &app.UserID, &app.CoverLetter, &app.ResumeFilename, &app.CreatedAt, &app.ApplicantEmail, &app.ApplicantName); err != nil {
			return apps, err
		}
		app.CreatedAtHumanised = humanize.Time(app.CreatedAt)
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// ResumeForApplication loads the stored resume file for download.
func (r *Repository) ResumeForApplication(ctx context.Context, applicationID string) (string, []byte, error) {
	var filename sql.NullString
	var data []byte
	row := r.db.QueryRowContext(
		ctx,
		`SELECT resume_filename, resume FROM application WHERE id = $1`,
		applicationID,
	)
	if err := row.Scan(&filename, &data); err != nil {
		return "", nil, err
	}
	return filename.String, data, nil
}
