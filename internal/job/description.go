package job

import (
	"github.com/microcosm-cc/bluemonday"
	blackfriday "github.com/russross/blackfriday/v2"
)

// MarkdownToHTML renders a job description to sanitised HTML for the job detail view.
func MarkdownToHTML(s string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink |
			blackfriday.NofollowLinks |
			blackfriday.NoreferrerLinks |
			blackfriday.HrefTargetBlank,
	})
	unsafe := blackfriday.Run([]byte(s), blackfriday.WithRenderer(renderer))
	return string(bluemonday.UGCPolicy().SanitizeBytes(unsafe))
}
