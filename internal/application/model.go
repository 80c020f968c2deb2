package application

import "time"

// ResumeAttachment is an accepted resume file held in memory
// until the submission request completes.
type ResumeAttachment struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
	MimeType  string `json:"mimeType"`
	Data      []byte `json:"-"`
}

// Submission is the immutable package of wizard state handed to the gateway.
// It can only be produced by a wizard that reached the review step.
type Submission struct {
	JobID       int
	UserID      string
	CoverLetter string
	Resume      *ResumeAttachment
}

type Application struct {
	ID                 string     `json:"id"`
	JobID              int        `json:"jobId"`
	UserID             string     `json:"userId"`
	CoverLetter        string     `json:"coverLetter"`
	ResumeFilename     string     `json:"resumeFilename,omitempty"`
	ResumeSize         int        `json:"resumeSize,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	CreatedAtHumanised string     `json:"createdAtHumanised,omitempty"`
	JobTitle           string     `json:"jobTitle,omitempty"`
	Company            string     `json:"company,omitempty"`
	ApplicantEmail     string     `json:"applicantEmail,omitempty"`
	ApplicantName      string     `json:"applicantName,omitempty"`
	Resume             []byte     `json:"-"`
	ConfirmedAt        *time.Time `json:"confirmedAt,omitempty"`
}
