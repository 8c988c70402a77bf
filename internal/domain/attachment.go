package domain

import "strings"

// Attachment is one file staged on a compose draft. Image attachments
// must clear the external compliance check before a send; other types
// pass through unchecked.
type Attachment struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.MIMEType), "image/")
}

// Violation is a single compliance finding reported by the checker.
type Violation struct {
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

// ComplianceResult is the resolved outcome for one checked input.
// Exactly one of Violations / URL is meaningful: a rejected input
// carries violations and no URL, an approved image carries the hosted
// URL and no violations.
type ComplianceResult struct {
	IsCompliant bool        `json:"isCompliant"`
	Violations  []Violation `json:"violations,omitempty"`
	URL         string      `json:"url,omitempty"`
}
