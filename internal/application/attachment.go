package application

import (
	"fmt"
	"strings"
)

const MaxResumeSizeBytes = 10 * 1024 * 1024

var (
	ErrResumeTooLarge        = fmt.Errorf("resume file exceeds %d bytes", MaxResumeSizeBytes)
	ErrUnsupportedResumeType = fmt.Errorf("resume file must be a PDF or Word document")
)

// AcceptResume validates an uploaded resume before it enters the wizard.
// A file is accepted when its content type is application/pdf or when the
// filename carries a lowercase .doc or .docx suffix.
func AcceptResume(filename, mimeType string, sizeBytes int64) error {
	if sizeBytes > MaxResumeSizeBytes {
		return ErrResumeTooLarge
	}
	if mimeType == "application/pdf" {
		return nil
	}
	if strings.HasSuffix(filename, ".doc") || strings.HasSuffix(filename, ".docx") {
		return nil
	}
	return ErrUnsupportedResumeType
}
