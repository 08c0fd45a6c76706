package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	m := NewIgnoreMatcher([]string{
		"",
		"   ",
		"# screenshots are kept",
		"*.tmp",
		"!keep.tmp",
		"/Private/",
		"DCIM/.hidden",
		"[",
		"!",
	})

	want := []ignoreRule{
		{glob: "*.tmp"},
		{glob: "keep.tmp", negate: true},
		{glob: "Private", anchored: true},
		{glob: "DCIM/.hidden", anchored: true},
	}
	if len(m.rules) != len(want) {
		t.Fatalf("got %d rules %+v, want %d", len(m.rules), m.rules, len(want))
	}
	for i := range want {
		if m.rules[i] != want[i] {
			t.Errorf("rule %d = %+v, want %+v", i, m.rules[i], want[i])
		}
	}
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		rel      string
		want     bool
	}{
		{"basename glob in root", []string{"*.tmp"}, "upload.tmp", true},
		{"basename glob in subdirectory", []string{"*.tmp"}, filepath.Join("Camera", "upload.tmp"), true},
		{"basename glob other extension", []string{"*.tmp"}, "IMG_0001.jpg", false},
		{"default thumbnails dir", defaultIgnorePatterns, filepath.Join("DCIM", ".thumbnails"), true},
		{"default trashed file", defaultIgnorePatterns, filepath.Join("Pictures", ".trashed-1700000000-a.png"), true},
		{"default ignore file itself", defaultIgnorePatterns, IgnoreFileName, true},
		{"defaults leave images alone", defaultIgnorePatterns, filepath.Join("DCIM", "Camera", "IMG_1.jpg"), false},
		{"path pattern matches from root", []string{"Pictures/private"}, filepath.Join("Pictures", "private"), true},
		{"path pattern does not match deeper", []string{"Pictures/private"}, filepath.Join("x", "Pictures", "private"), false},
		{"leading slash anchors basename", []string{"/Private"}, "Private", true},
		{"leading slash skips nested", []string{"/Private"}, filepath.Join("Pictures", "Private"), false},
		{"trailing slash is ignored", []string{"Screenshots/"}, filepath.Join("Pictures", "Screenshots"), true},
		{"negation re-includes", []string{"*.gif", "!keep.gif"}, "keep.gif", false},
		{"negation leaves others ignored", []string{"*.gif", "!keep.gif"}, "meme.gif", true},
		{"last match wins", []string{"!keep.gif", "*.gif"}, "keep.gif", true},
		{"empty path", []string{"*"}, "", false},
		{"volume root", []string{"*"}, ".", false},
		{"no rules", nil, "a.png", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NewIgnoreMatcher(tt.patterns).Match(tt.rel); got != tt.want {
				t.Errorf("Match(%q) with %v = %v, want %v", tt.rel, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads non-empty lines", func(t *testing.T) {
		t.Parallel()
		name := filepath.Join(t.TempDir(), IgnoreFileName)
		content := "*.gif\r\n# memes\n\n!keep.gif\nPictures/private\n"
		if err := os.WriteFile(name, []byte(content), 0644); err != nil {
			t.Fatalf("writing ignore file: %v", err)
		}

		lines, err := ParseIgnoreFile(name)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		want := []string{"*.gif", "# memes", "!keep.gif", "Pictures/private"}
		if len(lines) != len(want) {
			t.Fatalf("got %q, want %q", lines, want)
		}
		for i := range want {
			if lines[i] != want[i] {
				t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
			}
		}

		if n := len(NewIgnoreMatcher(lines).rules); n != 3 {
			t.Errorf("got %d rules, want 3", n)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		lines, err := ParseIgnoreFile(filepath.Join(t.TempDir(), IgnoreFileName))
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if lines != nil {
			t.Errorf("got %q, want nil", lines)
		}
	})
}
