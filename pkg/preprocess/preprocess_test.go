package preprocess_test

import (
	"testing"

	"github.com/thomasrohde/sack/pkg/preprocess"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		marker byte
		want   string
	}{
		{"empty", "", '#', ""},
		{"no comments", "print(1);\nprint(2);\n", '#', "print(1);\nprint(2);\n"},
		{"comment line blanked", "# note\nprint(1);\n", '#', "\nprint(1);\n"},
		{"only first column counts", "print(1); # trailing\n  # indented\n", '#', "print(1); # trailing\n  # indented\n"},
		{"carriage returns removed", "print(1);\r\nprint(2);\r\n", '#', "print(1);\nprint(2);\n"},
		{"comment after crlf", "print(1);\r\n# c\r\nprint(2);", '#', "print(1);\n\nprint(2);"},
		{"custom marker", "// note\nprint(1);\n# kept", '/', "\nprint(1);\n# kept"},
		{"marker inside text", "print(\"x\n#y\");", '#', "print(\"x\n\");"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocess.Clean(tt.src, tt.marker); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestCleanKeepsLineNumbers(t *testing.T) {
	src := "# header\n# more\nprint(1);"
	got := preprocess.Clean(src, preprocess.DefaultMarker)
	lines := 1
	for i := 0; i < len(got); i++ {
		if got[i] == '\n' {
			lines++
		}
	}
	if lines != 3 {
		t.Errorf("expected 3 lines, got %d in %q", lines, got)
	}
}
