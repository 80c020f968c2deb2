package user

import "time"

const (
	UserTypeGeneral = "general"
	UserTypeCompany = "company"
	UserTypeAdmin   = "admin"
)

type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	AccountLocked      bool      `json:"accountLocked"`
	CreatedAtHumanised string    `json:"createdAtHumanised,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	IsAdmin            bool      `json:"isAdmin"`
}

// Statistics summarises the user base for the admin dashboard.
type Statistics struct {
	TotalUsers          int `json:"totalUsers"`
	LockedUsers         int `json:"lockedUsers"`
	CompanyUsers        int `json:"companyUsers"`
	RegisteredLastMonth int `json:"registeredLastMonth"`
}
