package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptResume(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mimeType string
		size     int64
		wantErr  error
	}{
		{name: "pdf by mime type", filename: "resume", mimeType: "application/pdf", size: 1024},
		{name: "doc by suffix", filename: "resume.doc", mimeType: "application/octet-stream", size: 1024},
		{name: "docx by suffix", filename: "resume.docx", mimeType: "application/octet-stream", size: 1024},
		{name: "uppercase suffix rejected", filename: "resume.DOC", mimeType: "application/octet-stream", size: 1024, wantErr: ErrUnsupportedResumeType},
		{name: "plain text rejected", filename: "resume.txt", mimeType: "text/plain", size: 1024, wantErr: ErrUnsupportedResumeType},
		{name: "at the size limit", filename: "resume.pdf", mimeType: "application/pdf", size: MaxResumeSizeBytes},
		{name: "over the size limit", filename: "resume.pdf", mimeType: "application/pdf", size: MaxResumeSizeBytes + 1, wantErr: ErrResumeTooLarge},
		{name: "oversize checked before type", filename: "resume.txt", mimeType: "text/plain", size: MaxResumeSizeBytes + 1, wantErr: ErrResumeTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := AcceptResume(tc.filename, tc.mimeType, tc.size)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
