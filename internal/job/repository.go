package job

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
	"github.com/segmentio/ksuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) SaveJob(jobRq *JobRq) (JobPost, error) {
	externalID, err := ksuid.NewRandom()
	if err != nil {
		return JobPost{}, err
	}
	createdAt := time.Now().UTC()
	jobSlug := slug.Make(fmt.Sprintf("%s %s %d", jobRq.JobTitle, jobRq.Company, createdAt.Unix()))
	currency := jobRq.SalaryCurrency
	if currency == "" {
		currency = "KRW"
	}
	experienceLevel := jobRq.ExperienceLevel
	if experienceLevel == "" {
		experienceLevel = ExperienceLevelAny
	}
	j := JobPost{
		ExternalID:      externalID.String(),
		JobTitle:        jobRq.JobTitle,
		Company:         jobRq.Company,
		CompanyEmail:    jobRq.CompanyEmail,
		Location:        jobRq.Location,
		Description:     jobRq.Description,
		SalaryMin:       jobRq.SalaryMin,
		SalaryMax:       jobRq.SalaryMax,
		SalaryCurrency:  currency,
		Slug:            jobSlug,
		ExperienceLevel: experienceLevel,
		CreatedAt:       createdAt,
	}
	row := r.db.QueryRow(
		`INSERT INTO job (external_id, job_title, company, company_email, location, description, salary_min, salary_max, salary_currency, slug, experience_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		j.ExternalID, j.JobTitle, j.Company, j.CompanyEmail, j.Location, j.Description, j.SalaryMin, j.SalaryMax, j.SalaryCurrency, j.Slug, j.ExperienceLevel, j.CreatedAt,
	)
	if err := row.Scan(&j.ID); err != nil {
		return JobPost{}, err
	}
	return j, nil
}

func (r *Repository) ApproveJob(externalID string) error {
	_, err := r.db.Exec(`UPDATE job SET approved_at = NOW() WHERE external_id = $1`, externalID)
	return err
}

func (r *Repository) CloseJob(externalID string) error {
	_, err := r.db.Exec(`UPDATE job SET closed_at = NOW() WHERE external_id = $1`, externalID)
	return err
}

const jobColumns = `id, external_id, job_title, company, company_email, location, description, salary_min, salary_max, salary_currency, slug, experience_level, created_at, approved_at, closed_at`

func (r *Repository) scanJob(row interface{ Scan(...interface{}) error }) (JobPost, error) {
	j := JobPost{}
	err := row.Scan(
		&j.ID, &j.ExternalID, &j.JobTitle, &j.Company, &j.CompanyEmail, &j.Location,
		&j.Description, &j.SalaryMin, &j.SalaryMax, &j.SalaryCurrency, &j.Slug,
		&j.ExperienceLevel, &j.CreatedAt, &j.ApprovedAt, &j.ClosedAt,
	)
	if err != nil {
		return JobPost{}, err
	}
	j.TimeAgo = humanize.Time(j.CreatedAt.UTC())
	j.SalaryRange = fmt.Sprintf("%s%s to %s%s", j.SalaryCurrency, humanize.Comma(j.SalaryMin), j.SalaryCurrency, humanize.Comma(j.SalaryMax))
	return j, nil
}

func (r *Repository) JobPostBySlug(jobSlug string) (JobPost, error) {
	row := r.db.QueryRow(`SELECT `+jobColumns+` FROM job WHERE slug = $1 AND approved_at IS NOT NULL`, jobSlug)
	return r.scanJob(row)
}

func (r *Repository) JobPostByExternalID(externalID string) (JobPost, error) {
	row := r.db.QueryRow(`SELECT `+jobColumns+` FROM job WHERE external_id = $1`, externalID)
	return r.scanJob(row)
}

// JobsByQuery returns one page of approved, open job posts
// filtered by location and free text keyword, along with the total count.
func (r *Repository) JobsByQuery(location, keyword string, pageID, jobsPerPage int) ([]*JobPost, int, error) {
	jobs := []*JobPost{}
	where := []string{"approved_at IS NOT NULL", "closed_at IS NULL"}
	args := []interface{}{}
	if location != "" {
		args = append(args, "%"+strings.ToLower(location)+"%")
		where = append(where, fmt.Sprintf("LOWER(location) LIKE $%d", len(args)))
	}
	if keyword != "" {
		args = append(args, "%"+strings.ToLower(keyword)+"%")
		where = append(where, fmt.Sprintf("(LOWER(job_title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args), len(args)))
	}
	whereClause := strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRow(`SELECT count(*) FROM job WHERE `+whereClause, args...).Scan(&total); err != nil {
		return jobs, 0, err
	}
	args = append(args, jobsPerPage, (pageID-1)*jobsPerPage)
	rows, err := r.db.Query(
		`SELECT `+jobColumns+` FROM job WHERE `+whereClause+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return jobs, total, err
	}
	defer rows.Close()
	for rows.Next() {
		j, err := r.scanJob(rows)
		if err != nil {
			return jobs, total, err
		}
		jobs = append(jobs, &j)
	}
	if err := rows.Err(); err != nil {
		return jobs, total, err
	}
	return jobs, total, nil
}

// GetLastNJobs returns the latest approved, open job posts, newest first.
func (r *Repository) GetLastNJobs(max int, location string) ([]*JobPost, error) {
	jobs := []*JobPost{}
	var rows *sql.Rows
	var err error
	if location != "" {
		rows, err = r.db.Query(
			`SELECT `+jobColumns+` FROM job WHERE approved_at IS NOT NULL AND closed_at IS NULL AND LOWER(location) LIKE $1 ORDER BY created_at DESC LIMIT $2`,
			"%"+strings.ToLower(location)+"%", max,
		)
	} else {
		rows, err = r.db.Query(
			`SELECT `+jobColumns+` FROM job WHERE approved_at IS NOT NULL AND closed_at IS NULL ORDER BY created_at DESC LIMIT $1`,
			max,
		)
	}
	if err != nil {
		return jobs, err
	}
	defer rows.Close()
	for rows.Next() {
		j, err := r.scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *Repository) LastJobPosted() (time.Time, error) {
	row := r.db.QueryRow(`SELECT created_at FROM job WHERE approved_at IS NOT NULL ORDER BY created_at DESC LIMIT 1`)
	var last time.Time
	if err := row.Scan(&last); err != nil {
		return time.Now().UTC(), err
	}
	return last, nil
}

func (r *Repository) NewJobsLastWeekOrMonth() (int, int, error) {
	var week, month int
	row := r.db.QueryRow(`SELECT
		count(*) FILTER (WHERE created_at > NOW() - INTERVAL '7 DAYS'),
		count(*) FILTER (WHERE created_at > NOW() - INTERVAL '30 DAYS')
	FROM job WHERE approved_at IS NOT NULL`)
	if err := row.Scan(&week, &month); err != nil {
		return 0, 0, err
	}
	return week, month, nil
}

// SalarySamples returns the posted salary bands of all approved jobs,
// used by the admin dashboard to compute salary statistics.
func (r *Repository) SalarySamples() ([]SalarySample, error) {
	samples := []SalarySample{}
	rows, err := r.db.Query(`SELECT salary_min, salary_max FROM job WHERE approved_at IS NOT NULL AND salary_max > 0`)
	if err != nil {
		return samples, err
	}
	defer rows.Close()
	for rows.Next() {
		s := SalarySample{}
		if err := rows.Scan(&s.Min, &s.Max); err != nil {
			return samples, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return samples, err
	}
	return samples, nil
}
