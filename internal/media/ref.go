// Package media resolves external video references and calendar date tokens.
package media

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// VideoRefLength is the length of a canonical YouTube video id.
const VideoRefLength = 11

const (
	thumbnailURLTemplate = "https://img.youtube.com/vi/%s/mqdefault.jpg"
	watchURLTemplate     = "https://youtu.be/%s"
)

// ErrInvalidVideoURL is returned when a pasted URL does not resolve to a video id.
var ErrInvalidVideoURL = errors.New("invalid video url")

// VideoRef is a canonical external video identifier.
type VideoRef string

func (r VideoRef) String() string { return string(r) }

// videoRefPattern captures the token that follows one of the known URL shapes:
// youtu.be/<id>, v/<id>, u/<x>/<id>, embed/<id>, watch?v=<id> and &v=<id>.
var videoRefPattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ExtractVideoRef returns the video id contained in rawURL. The captured token must be
// exactly VideoRefLength characters; anything else yields false.
func ExtractVideoRef(rawURL string) (VideoRef, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}

	m := videoRefPattern.FindStringSubmatch(rawURL)
	if m == nil || len(m[2]) != VideoRefLength {
		return "", false
	}
	return VideoRef(m[2]), true
}

// ParseVideoRef is ExtractVideoRef with an error for callers that reject submissions.
func ParseVideoRef(rawURL string) (VideoRef, error) {
	ref, ok := ExtractVideoRef(rawURL)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideoURL, rawURL)
	}
	return ref, nil
}

// IsInvalidVideoURL checks if the error is a video url parse error
func IsInvalidVideoURL(err error) bool {
	return errors.Is(err, ErrInvalidVideoURL)
}

// ThumbnailURL returns the preview image for a reference.
func ThumbnailURL(ref VideoRef) string {
	return fmt.Sprintf(thumbnailURLTemplate, ref)
}

// WatchURL returns a short link that ExtractVideoRef resolves back to ref.
func WatchURL(ref VideoRef) string {
	return fmt.Sprintf(watchURLTemplate, ref)
}
