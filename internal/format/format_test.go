package format

import (
	"bytes"
	"testing"
	"time"
)

func TestCountdown(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		want      string
	}{
		{name: "zero", remaining: 0, want: "00:00"},
		{name: "negative clamps", remaining: -5 * time.Second, want: "00:00"},
		{name: "seconds only", remaining: 9 * time.Second, want: "00:09"},
		{name: "minutes and seconds", remaining: 3*time.Minute + 7*time.Second, want: "03:07"},
		{name: "full budget", remaining: 2340 * time.Second, want: "39:00"},
		{name: "over an hour keeps minutes", remaining: 61 * time.Minute, want: "61:00"},
		{name: "sub-second rounds", remaining: 1500 * time.Millisecond, want: "00:02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Countdown(tt.remaining); got != tt.want {
				t.Fatalf("Countdown(%v) = %q, want %q", tt.remaining, got, tt.want)
			}
		})
	}
}

func TestFileEnvelopeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{
			name: "plain",
			file: File{Name: "clip.mp4", MIME: "video/mp4", Data: []byte{0x00, 0x01, 0xff}},
		},
		{
			name: "name with spaces and semicolons",
			file: File{Name: "my clip; final.mov", MIME: "video/quicktime", Data: []byte("payload")},
		},
		{
			name: "empty data",
			file: File{Name: "empty.bin", MIME: "application/octet-stream", Data: []byte{}},
		},
		{
			name: "mime with codec parameter",
			file: File{Name: "clip.mp4", MIME: `video/mp4; codecs="avc1.42E01E"`, Data: []byte("payload")},
		},
		{
			name: "mime with charset and name parameters",
			file: File{Name: "notes.txt", MIME: "text/plain; charset=utf-8; name=other.txt", Data: []byte("hi")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFile(EncodeFile(tt.file))
			if err != nil {
				t.Fatalf("DecodeFile: %v", err)
			}
			if got.Name != tt.file.Name {
				t.Errorf("name = %q, want %q", got.Name, tt.file.Name)
			}
			if got.MIME != tt.file.MIME {
				t.Errorf("mime = %q, want %q", got.MIME, tt.file.MIME)
			}
			if !bytes.Equal(got.Data, tt.file.Data) {
				t.Errorf("data = %v, want %v", got.Data, tt.file.Data)
			}
		})
	}
}

func TestDecodeFileRejectsMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"video/mp4;name=a;base64,",
		"data:video/mp4;base64,AAAA",
		"data:video/mp4;name=a;AAAA",
		"data:video/mp4;name=a;base64,!!!",
	} {
		if _, err := DecodeFile(encoded); err == nil {
			t.Errorf("DecodeFile(%q) succeeded, want error", encoded)
		}
	}
}

func TestSanitizeScript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims", in: "  hello  ", want: "hello"},
		{name: "collapses whitespace", in: "a \t b\n\nc", want: "a b c"},
		{name: "drops control chars", in: "a\x00b\x07c", want: "abc"},
		{name: "empty", in: "\t \n", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeScript(tt.in); got != tt.want {
				t.Fatalf("SanitizeScript(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVideoTitle(t *testing.T) {
	if got := VideoTitle("welcome to our product tour today and beyond", 4); got != "Welcome To Our Product" {
		t.Fatalf("VideoTitle = %q", got)
	}
	if got := VideoTitle("   ", 4); got != "Untitled Video" {
		t.Fatalf("VideoTitle empty = %q", got)
	}
}
