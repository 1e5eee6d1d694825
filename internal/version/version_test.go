package version

import (
	"strings"
	"testing"
)

func TestGettersMatchInfo(t *testing.T) {
	v, c, d := Info()

	cases := map[string]struct {
		got, want string
	}{
		"version": {GetVersion(), v},
		"commit":  {GetCommit(), c},
		"date":    {GetDate(), d},
	}
	for name, tc := range cases {
		if tc.got == "" {
			t.Errorf("%s should not be empty", name)
		}
		if tc.got != tc.want {
			t.Errorf("%s getter (%s) should match Info (%s)", name, tc.got, tc.want)
		}
	}
}

func TestString(t *testing.T) {
	s := String()
	for _, part := range []string{"version=", "commit=", "date="} {
		if !strings.Contains(s, part) {
			t.Errorf("String should contain %q, got %q", part, s)
		}
	}
}
