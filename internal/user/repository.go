package user

import (
	"database/sql"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) CreateUser(email, name, password, userType string) (User, error) {
	userID, err := ksuid.NewRandom()
	if err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:        userID.String(),
		Email:     email,
		Name:      name,
		Type:      userType,
		CreatedAt: time.Now().UTC(),
	}
	u.CreatedAtHumanised = humanize.Time(u.CreatedAt)
	u.IsAdmin = userType == UserTypeAdmin
	if _, err := r.db.Exec(
		`INSERT INTO users (id, email, name, password_hash, user_type, account_locked, created_at) VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		u.ID, u.Email, u.Name, string(hash), u.Type, u.CreatedAt,
	); err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *Repository) GetUser(email string) (User, error) {
	u := User{}
	row := r.db.QueryRow(`SELECT id, email, name, user_type, account_locked, created_at FROM users WHERE email = $1`, email)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Type, &u.AccountLocked, &u.CreatedAt); err != nil {
		return u, err
	}
	u.IsAdmin = u.Type == UserTypeAdmin
	u.CreatedAtHumanised = humanize.Time(u.CreatedAt.UTC())
	return u, nil
}

func (r *Repository) GetUserByID(id string) (User, error) {
	u := User{}
	row := r.db.QueryRow(`SELECT id, email, name, user_type, account_locked, created_at FROM users WHERE id = $1`, id)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Type, &u.AccountLocked, &u.CreatedAt); err != nil {
		return u, err
	}
	u.IsAdmin = u.Type == UserTypeAdmin
	u.CreatedAtHumanised = humanize.Time(u.CreatedAt.UTC())
	return u, nil
}

// ValidatePassword checks the given plaintext password against the stored hash.
func (r *Repository) ValidatePassword(email, password string) (bool, error) {
	var hash string
	row := r.db.QueryRow(`SELECT password_hash FROM users WHERE email = $1`, email)
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

func (r *Repository) UsersByPage(pageID, perPage int) ([]User, int, error) {
	users := []User{}
	var total int
	if err := r.db.QueryRow(`SELECT count(*) as c FROM users`).Scan(&total); err != nil {
		return users, 0, err
	}
	offset := (pageID - 1) * perPage
	rows, err := r.db.Query(`SELECT id, email, name, user_type, account_locked, created_at FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, perPage, offset)
	if err != nil {
		return users, total, err
	}
	defer rows.Close()
	for rows.Next() {
		u := User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Type, &u.AccountLocked, &u.CreatedAt); err != nil {
			return users, total, err
		}
		u.IsAdmin = u.Type == UserTypeAdmin
		u.CreatedAtHumanised = humanize.Time(u.CreatedAt.UTC())
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return users, total, err
	}
	return users, total, nil
}

func (r *Repository) LockAccount(id string) error {
	res, err := r.db.Exec(`UPDATE users SET account_locked = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return errors.New("user not found")
	}
	return nil
}

func (r *Repository) UnlockAccount(id string) error {
	res, err := r.db.Exec(`UPDATE users SET account_locked = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return errors.New("user not found")
	}
	return nil
}

// PromoteToAdmin flips the user type to admin, it is guarded
// by the admin secret key at the handler layer.
func (r *Repository) PromoteToAdmin(email string) error {
	res, err := r.db.Exec(`UPDATE users SET user_type = $1 WHERE email = $2`, UserTypeAdmin, email)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return errors.New("user not found")
	}
	return nil
}

func (r *Repository) GetStatistics() (Statistics, error) {
	stats := Statistics{}
	row := r.db.QueryRow(`SELECT
		count(*),
		count(*) FILTER (WHERE account_locked),
		count(*) FILTER (WHERE user_type = 'company'),
		count(*) FILTER (WHERE created_at > NOW() - INTERVAL '30 DAYS')
	FROM users`)
	if err := row.Scan(&stats.TotalUsers, &stats.LockedUsers, &stats.CompanyUsers, &stats.RegisteredLastMonth); err != nil {
		return stats, err
	}
	return stats, nil
}
