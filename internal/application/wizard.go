package application

import (
	"errors"
	"strings"
)

type Step int

const (
	StepCoverLetter Step = iota + 1
	StepAttachment
	StepReview
)

var (
	ErrEmptyCoverLetter   = errors.New("cover letter cannot be empty")
	ErrAlreadyAtLastStep  = errors.New("already at the review step")
	ErrNotAtReviewStep    = errors.New("submission is only allowed from the review step")
	ErrNotAtAttachStep    = errors.New("attachments can only change on the attachment step")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// Wizard models the three-step application flow for a single job.
// Step transitions are guarded; an illegal transition returns an error
// and leaves the state untouched.
type Wizard struct {
	JobID  int
	UserID string

	step        Step
	coverLetter string
	resume      *ResumeAttachment
	inFlight    bool
}

func NewWizard(jobID int, userID string) *Wizard {
	return &Wizard{
		JobID:  jobID,
		UserID: userID,
		step:   StepCoverLetter,
	}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) CoverLetter() string { return w.coverLetter }

func (w *Wizard) Resume() *ResumeAttachment { return w.resume }

func (w *Wizard) SetCoverLetter(text string) {
	w.coverLetter = text
}

// Advance moves one step forward. Leaving the cover letter step requires a
// non-empty letter after trimming whitespace.
func (w *Wizard) Advance() error {
	switch w.step {
	case StepCoverLetter:
		if strings.TrimSpace(w.coverLetter) == "" {
			return ErrEmptyCoverLetter
		}
		w.step = StepAttachment
	case StepAttachment:
		w.step = StepReview
	default:
		return ErrAlreadyAtLastStep
	}
	return nil
}

// Retreat moves one step back. At the first step it is a no-op.
func (w *Wizard) Retreat() {
	if w.step > StepCoverLetter {
		w.step--
	}
}

func (w *Wizard) Attach(att ResumeAttachment) error {
	if w.step != StepAttachment {
		return ErrNotAtAttachStep
	}
	w.resume = &att
	return nil
}

func (w *Wizard) RemoveAttachment() error {
	if w.step != StepAttachment {
		return ErrNotAtAttachStep
	}
	w.resume = nil
	return nil
}

// Submit produces the Submission for the gateway. It only succeeds at the
// review step, with a non-empty letter, and at most once at a time: callers
// must Settle the wizard after the gateway responds before submitting again.
func (w *Wizard) Submit() (Submission, error) {
	if w.step != StepReview {
		return Submission{}, ErrNotAtReviewStep
	}
	if strings.TrimSpace(w.coverLetter) == "" {
		return Submission{}, ErrEmptyCoverLetter
	}
	if w.inFlight {
		return Submission{}, ErrSubmissionInFlight
	}
	w.inFlight = true
	return Submission{
		JobID:       w.JobID,
		UserID:      w.UserID,
		CoverLetter: w.coverLetter,
		Resume:      w.resume,
	}, nil
}

// Settle clears the in-flight flag once the gateway has accepted or
// rejected the submission.
func (w *Wizard) Settle() {
	w.inFlight = false
}
