package storage

import (
	"mime"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fallbackName replaces an original name that sanitizes to nothing.
const fallbackName = "audio"

var whitespaceRun = regexp.MustCompile(`\s+`)

// AudioContentTypes maps audio file extensions to MIME types.
var AudioContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
}

// ContentTypeForFilename returns the MIME type for an audio filename extension.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ct, ok := AudioContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// SanitizeName reduces a client-supplied filename to a safe object name:
// directory components are dropped, whitespace runs become "-", the result is
// lower-cased and anything outside [a-z0-9._-] is removed.
func SanitizeName(original string) string {
	if i := strings.LastIndexAny(original, `/\`); i >= 0 {
		original = original[i+1:]
	}
	s := whitespaceRun.ReplaceAllString(strings.TrimSpace(original), "-")
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return fallbackName
	}
	return out
}

// Namer derives collision-free object names from a millisecond timestamp
// that never repeats or goes backwards within the process.
type Namer struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewNamer returns a Namer backed by the wall clock.
func NewNamer() *Namer {
	return &Namer{now: time.Now}
}

// Name returns "<millis>-<sanitized original>".
func (n *Namer) Name(original string) string {
	n.mu.Lock()
	stamp := n.now().UnixMilli()
	if stamp <= n.last {
		stamp = n.last + 1
	}
	n.last = stamp
	n.mu.Unlock()
	return strconv.FormatInt(stamp, 10) + "-" + SanitizeName(original)
}
