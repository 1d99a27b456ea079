package utils

import (
	"strings"
	"testing"
)

func TestGenerateReferenceID_Format(t *testing.T) {
	ref := GenerateReferenceID(42)
	if !strings.HasPrefix(ref, "QST-") {
		t.Fatalf("reference %q missing QST- prefix", ref)
	}
	if !strings.HasSuffix(ref, "42") {
		t.Errorf("reference %q should end with the user id", ref)
	}
}

func TestMaskAccountNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"09171234567", "0917****4567"},
		{" 09171234567 ", "0917****4567"},
		{"123456", "123456"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MaskAccountNumber(tc.in); got != tc.want {
			t.Errorf("MaskAccountNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{10.006, 10.01},
		{10.004, 10.0},
		{-1.556, -1.56},
		{100, 100},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
