package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name",
			input: "report.pdf",
			want:  "report.pdf",
		},
		{
			name:  "spaces become underscores",
			input: "my report v2.pdf",
			want:  "my_report_v2.pdf",
		},
		{
			name:  "path traversal collapses to base",
			input: "../../etc/passwd",
			want:  "passwd",
		},
		{
			name:  "windows path separators",
			input: "..\\..\\windows\\system32\\cmd.exe",
			want:  "cmd.exe",
		},
		{
			name:  "absolute path",
			input: "/var/log/app.txt",
			want:  "app.txt",
		},
		{
			name:  "unsafe characters removed",
			input: "pho#to$(1).png",
			want:  "photo1.png",
		},
		{
			name:  "leading dots trimmed",
			input: ".hidden.txt",
			want:  "hidden.txt",
		},
		{
			name:  "dot dot only",
			input: "..",
			want:  "",
		},
		{
			name:  "nothing safe remains",
			input: "###",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "report.PDF", want: "pdf"},
		{input: "archive.tar.gz", want: "gz"},
		{input: "noextension", want: ""},
		{input: "trailingdot.", want: ""},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Extension(tt.input), "input %q", tt.input)
	}
}

func TestAllowedExtension(t *testing.T) {
	allowed := []string{"notes.txt", "slides.pptx", "deck.ppt", "scan.jpeg", "photo.JPG", "paper.pdf", "essay.docx", "memo.doc", "anim.gif", "pic.png"}
	for _, name := range allowed {
		assert.True(t, AllowedExtension(name), "%s should be allowed", name)
	}

	denied := []string{"script.sh", "binary.exe", "page.html", "noextension", "tricky.pdf.exe", ""}
	for _, name := range denied {
		assert.False(t, AllowedExtension(name), "%s should be denied", name)
	}
}
