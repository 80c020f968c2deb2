package application

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitApplicationInsertsOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO application").
		WithArgs(sqlmock.AnyArg(), 42, "user-1", "my letter", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepository(db)
	app, err := repo.SubmitApplication(context.Background(), Submission{
		JobID:       42,
		UserID:      "user-1",
		CoverLetter: "my letter",
		Resume:      &ResumeAttachment{Filename: "resume.pdf", SizeBytes: 2048, Data: []byte("pdf")},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, 42, app.JobID)
	assert.Equal(t, "resume.pdf", app.ResumeFilename)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitApplicationDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO application").
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewRepository(db)
	_, err = repo.SubmitApplication(context.Background(), Submission{JobID: 42, UserID: "user-1", CoverLetter: "letter"})
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationsByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Now().UTC().Add(-2 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "job_id", "user_id", "cover_letter", "resume_filename", "created_at", "job_title", "company"}).
		AddRow("app-1", 42, "user-1", "letter", "resume.pdf", createdAt, "Backend Engineer", "Acme")
	mock.ExpectQuery("SELECT (.+) FROM application a JOIN job j").
		WithArgs("user-1").
		WillReturnRows(rows)

	repo := NewRepository(db)
	apps, err := repo.ApplicationsByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Backend Engineer", apps[0].JobTitle)
	assert.Equal(t, "Acme", apps[0].Company)
	assert.NotEmpty(t, apps[0].CreatedAtHumanised)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantsForJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "job_id", "user_id", "cover_letter", "resume_filename", "created_at", "email", "name"}).
		AddRow("app-1", 42, "user-1", "letter", "", createdAt, "jane@example.com", "Jane")
	mock.ExpectQuery("SELECT (.+) FROM application a JOIN users u").
		WithArgs(42).
		WillReturnRows(rows)

	repo := NewRepository(db)
	apps, err := repo.ApplicantsForJob(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "jane@example.com", apps[0].ApplicantEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}
