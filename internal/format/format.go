package format

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Countdown renders a remaining duration as MM:SS. Negative durations clamp
// to 00:00; durations of an hour or more keep accumulating minutes.
func Countdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	total := int(remaining.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// File is an in-memory file payload carried through upload sessions.
type File struct {
	Name string
	MIME string
	Data []byte
}

const filePrefix = "data:"

// EncodeFile renders f as a self-describing data-URL style envelope that
// preserves name, MIME type and content:
//
//	data:<mime>;name=<urlencoded>;base64,<payload>
func EncodeFile(f File) string {
	return filePrefix + f.MIME +
		";name=" + url.QueryEscape(f.Name) +
		";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// DecodeFile parses an envelope produced by EncodeFile. The envelope is
// parsed from the tail: the escaped name and the base64 payload contain no
// semicolons, so everything before the last ";name=" is the MIME type,
// parameters and all ("video/mp4; codecs=...").
func DecodeFile(encoded string) (File, error) {
	if !strings.HasPrefix(encoded, filePrefix) {
		return File{}, errors.New("format: missing data prefix")
	}
	rest := strings.TrimPrefix(encoded, filePrefix)

	payloadAt := strings.LastIndex(rest, ";base64,")
	if payloadAt < 0 {
		return File{}, errors.New("format: missing base64 payload")
	}
	head, payload := rest[:payloadAt], rest[payloadAt+len(";base64,"):]

	nameAt := strings.LastIndex(head, ";name=")
	if nameAt < 0 {
		return File{}, errors.New("format: missing name field")
	}
	name, err := url.QueryUnescape(head[nameAt+len(";name="):])
	if err != nil {
		return File{}, fmt.Errorf("format: decode name: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return File{}, fmt.Errorf("format: decode payload: %w", err)
	}
	return File{Name: name, MIME: head[:nameAt], Data: data}, nil
}

// SanitizeScript normalizes a user script for submission: control characters
// are dropped, whitespace runs collapse to single spaces and the result is
// trimmed.
func SanitizeScript(script string) string {
	var b strings.Builder
	b.Grow(len(script))
	lastSpace := false
	for _, r := range script {
		if unicode.IsControl(r) && r != '\n' {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// VideoTitle derives a display title from a script: the first few words,
// title-cased, capped in length.
func VideoTitle(script string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 6
	}
	words := strings.Fields(SanitizeScript(script))
	if len(words) == 0 {
		return "Untitled Video"
	}
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	title := cases.Title(language.English).String(strings.Join(words, " "))
	return title
}
