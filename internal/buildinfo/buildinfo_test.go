package buildinfo

import "testing"

func TestShortPrefersVersionThenCommit(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)

	cases := []struct {
		version, commit, want string
	}{
		{"v1.2.0", "abc123", "v1.2.0"},
		{"dev", "abc123", "abc123"},
		{"", "unknown", "dev"},
	}
	for _, c := range cases {
		Version, Commit = c.version, c.commit
		if got := Short(); got != c.want {
			t.Fatalf("Short() with %q/%q=%q, want %q", c.version, c.commit, got, c.want)
		}
	}
}
