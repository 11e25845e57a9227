package main

import (
	"regexp"
	"strings"
	"time"
)

const eventTimeLayout = "2006-01-02 15:04"

// normUsername strips the @ prefix and lowercases a Telegram username.
func normUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(u, "@")))
}

var phoneJunk = regexp.MustCompile(`[^0-9+]`)

// normPhone reduces a phone number to digits and a leading plus.
func normPhone(p string) string {
	return phoneJunk.ReplaceAllString(strings.TrimSpace(p), "")
}

// parseEventTime parses user input of the form "YYYY-MM-DD HH:MM" in the
// configured timezone.
func parseEventTime(text string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(eventTimeLayout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// displayEventTime formats a stored event time for users, "Not set" if none.
func displayEventTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "Not set"
	}
	return t.In(loc).Format(eventTimeLayout)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// htmlEscape escapes text interpolated into HTML-mode messages.
func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}

const captionLimit = 1024

// clampCaption trims text to Telegram's photo caption limit.
func clampCaption(text string) string {
	if len(text) <= captionLimit {
		return text
	}
	return text[:captionLimit-3] + "..."
}

// orNotSet substitutes a placeholder for empty values in rendered views.
func orNotSet(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not set"
	}
	return s
}
