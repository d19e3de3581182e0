package md2_test

import (
	"encoding/hex"
	"testing"

	"vpxmerge/internal/md2"
)

// Test vectors from RFC 1319 appendix A.5.
func TestVectors(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "8350e5a3e24c153df2275c9f80692773"},
		{"a", "32ec01ec4a6dac72c0ab96fb34c0b5d1"},
		{"abc", "da853b0d3f88d99b30283a69e6ded6bb"},
		{"message digest", "ab4f496bfb2a530b219ff33031fe06b0"},
		{"abcdefghijklmnopqrstuvwxyz", "4e8ddff3650292ab5a4108c3aa47940b"},
		{"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789", "da33def2a42df13975352846c30338cd"},
		{"12345678901234567890123456789012345678901234567890123456789012345678901234567890", "d5976f79d83d3a0dc9806c3c66f3efd8"},
	}
	for _, tc := range cases {
		h := md2.New()
		h.Write([]byte(tc.in))
		got := hex.EncodeToString(h.Sum(nil))
		if got != tc.want {
			t.Errorf("md2(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSplitWrites(t *testing.T) {
	whole := md2.New()
	whole.Write([]byte("message digest"))
	want := hex.EncodeToString(whole.Sum(nil))

	split := md2.New()
	split.Write([]byte("mess"))
	split.Write([]byte("age dig"))
	split.Write([]byte("est"))
	got := hex.EncodeToString(split.Sum(nil))
	if got != want {
		t.Fatalf("split writes digest = %s, want %s", got, want)
	}
}

func TestSumDoesNotFinalizeState(t *testing.T) {
	h := md2.New()
	h.Write([]byte("abc"))
	first := hex.EncodeToString(h.Sum(nil))
	second := hex.EncodeToString(h.Sum(nil))
	if first != second {
		t.Fatalf("repeated Sum diverged: %s vs %s", first, second)
	}
}
