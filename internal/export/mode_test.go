package export_test

import (
	"testing"

	"vpxmerge/internal/export"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want export.Mode
		ok   bool
	}{
		{"default", export.ModeDefault, true},
		{"hide", export.ModeHide, true},
		{"remove", export.ModeRemove, true},
		{"remove-all", export.ModeRemoveAll, true},
		{"remove_all", export.ModeDefault, false},
		{"", export.ModeDefault, false},
	}
	for _, tc := range cases {
		got, err := export.ParseMode(tc.in)
		if tc.ok != (err == nil) {
			t.Errorf("ParseMode(%q) error = %v", tc.in, err)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestModeString(t *testing.T) {
	if got := export.ModeRemoveAll.String(); got != "remove-all" {
		t.Errorf("String() = %q", got)
	}
}
