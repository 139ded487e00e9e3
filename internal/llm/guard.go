package llm

import (
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	emailPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+`)
	phonePattern = regexp.MustCompile(`\b\d{8,15}\b`)
)

// CleanInput strips tag-like markup from tenant-supplied text before it is
// placed in a prompt.
func CleanInput(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
}

// MaskPII hides email addresses and phone numbers so text can be logged.
func MaskPII(text string) string {
	if text == "" {
		return ""
	}
	text = emailPattern.ReplaceAllString(text, "[EMAIL_MASKED]")
	return phonePattern.ReplaceAllString(text, "[PHONE_MASKED]")
}
