package media

import "time"

// DateLayout is the sortable layout of a DateToken.
const DateLayout = "2006-01-02"

// DateToken is a calendar date in YYYY-MM-DD form. Tokens compare correctly as strings.
// The empty token means "unbounded".
type DateToken string

// Today returns the UTC calendar date of now.
func Today(now time.Time) DateToken {
	return DateToken(now.UTC().Format(DateLayout))
}

// ValidDate reports whether s is empty or a real YYYY-MM-DD date.
func ValidDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
