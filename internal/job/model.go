package job

import "time"

const (
	ExperienceLevelAny    = "any"
	ExperienceLevelEntry  = "entry"
	ExperienceLevelJunior = "junior"
	ExperienceLevelSenior = "senior"
)

type JobPost struct {
	ID              int        `json:"id"`
	ExternalID      string     `json:"externalId"`
	JobTitle        string     `json:"jobTitle"`
	Company         string     `json:"company"`
	CompanyEmail    string     `json:"-"`
	Location        string     `json:"location"`
	Description     string     `json:"description"`
	DescriptionHTML string     `json:"descriptionHtml,omitempty"`
	SalaryMin       int64      `json:"salaryMin"`
	SalaryMax       int64      `json:"salaryMax"`
	SalaryCurrency  string     `json:"salaryCurrency"`
	SalaryRange     string     `json:"salaryRange,omitempty"`
	Slug            string     `json:"slug"`
	ExperienceLevel string     `json:"experienceLevel"`
	CreatedAt       time.Time  `json:"createdAt"`
	TimeAgo         string     `json:"timeAgo,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
}

// JobRq is the payload accepted when a company posts a new job.
type JobRq struct {
	JobTitle        string `json:"job_title"`
	Company         string `json:"company_name"`
	CompanyEmail    string `json:"company_email"`
	Location        string `json:"job_location"`
	Description     string `json:"job_description"`
	SalaryMin       int64  `json:"salary_min"`
	SalaryMax       int64  `json:"salary_max"`
	SalaryCurrency  string `json:"salary_currency"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

// SalarySample is one job's posted salary band, used for dashboard statistics.
type SalarySample struct {
	Min int64
	Max int64
}
