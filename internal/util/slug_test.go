package util

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Intro to SCORM", "intro-to-scorm"},
		{"  Lesson #1: Basics!  ", "lesson-1-basics"},
		{"ALL_CAPS_TITLE", "all-caps-title"},
		{"---", "package"},
		{"", "package"},
		{"已经是中文标题", "已经是中文标题"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"intro": true}
	exists := func(s string) bool { return taken[s] }

	if got := UniqueSlug("Fresh Title", exists); got != "fresh-title" {
		t.Errorf("UniqueSlug = %q, want fresh-title", got)
	}

	got := UniqueSlug("Intro", exists)
	if !strings.HasPrefix(got, "intro-") {
		t.Errorf("colliding slug = %q, want intro-<suffix>", got)
	}
	if len(got) != len("intro-")+8 {
		t.Errorf("suffix length wrong: %q", got)
	}
}
