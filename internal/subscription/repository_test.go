package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscriptionRows(sub Subscription) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "plan_type", "status", "start_date", "end_date", "amount",
		"payment_method", "kakao_tid", "order_id", "academy_name", "academy_verified",
		"created_at", "cancelled_at",
	}).AddRow(
		sub.ID, sub.UserID, sub.PlanType, sub.Status, sub.StartDate, sub.EndDate,
		sub.Amount, sub.PaymentMethod, sub.KakaoTID, sub.OrderID, sub.AcademyName,
		sub.AcademyVerified, sub.CreatedAt, nil,
	)
}

func TestCreateRejectsDuplicateActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", string(StatusActive)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewRepository(db)
	_, err = repo.Create(context.Background(), Subscription{UserID: "user-1", PlanType: PlanPaidMonthly})
	assert.ErrorIs(t, err, ErrActiveSubscription)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInsertsWhenNoActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", string(StatusActive)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO subscription").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepository(db)
	now := time.Now().UTC()
	sub, err := repo.Create(context.Background(), Subscription{
		UserID:    "user-1",
		PlanType:  PlanPaidMonthly,
		Status:    StatusActive,
		StartDate: now,
		EndDate:   PlanPaidMonthly.TermEnd(now),
		Amount:    9900,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentForUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM subscription WHERE user_id").
		WithArgs("user-1", string(StatusActive)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewRepository(db)
	_, err = repo.CurrentForUser(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelChecksOwnership(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM subscription WHERE id").
		WithArgs("sub-1").
		WillReturnRows(subscriptionRows(Subscription{
			ID: "sub-1", UserID: "someone-else", PlanType: PlanPaidMonthly,
			Status: StatusActive, StartDate: now, EndDate: now.Add(30 * 24 * time.Hour),
			Amount: 9900, CreatedAt: now,
		}))

	repo := NewRepository(db)
	err = repo.Cancel(context.Background(), "sub-1", "user-1")
	assert.ErrorIs(t, err, ErrNotSubscriptionOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelUpdatesStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM subscription WHERE id").
		WithArgs("sub-1").
		WillReturnRows(subscriptionRows(Subscription{
			ID: "sub-1", UserID: "user-1", PlanType: PlanPaidMonthly,
			Status: StatusActive, StartDate: now, EndDate: now.Add(30 * 24 * time.Hour),
			Amount: 9900, CreatedAt: now,
		}))
	mock.ExpectExec("UPDATE subscription SET status").
		WithArgs(string(StatusCancelled), "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepository(db)
	assert.NoError(t, repo.Cancel(context.Background(), "sub-1", "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAcademyCoupon(t *testing.T) {
	tests := []struct {
		code     string
		eligible bool
		academy  string
	}{
		{code: "soldeskjongro", eligible: true, academy: "솔데스크 종로"},
		{code: "soldesk2024", eligible: true, academy: "솔데스크"},
		{code: "soldesk", eligible: true, academy: "솔데스크"},
		{code: "SOLDESK", eligible: false},
		{code: "", eligible: false},
		{code: "random", eligible: false},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			academy, ok := CheckAcademyCoupon(tc.code)
			assert.Equal(t, tc.eligible, ok)
			assert.Equal(t, tc.academy, academy)
		})
	}
}

func TestPlanTermEnd(t *testing.T) {
	start := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.February, 15, 9, 0, 0, 0, time.UTC), PlanPaidMonthly.TermEnd(start))
	assert.Equal(t, time.Date(2026, time.April, 15, 9, 0, 0, 0, time.UTC), PlanFreeAcademy.TermEnd(start))

	// calendar months, not fixed days: a February term is shorter
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), PlanPaidMonthly.TermEnd(feb))
}
