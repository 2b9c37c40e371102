package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("physics", 10) != "physics" {
		t.Error("short string unchanged")
	}
	if got := Truncate("quantum physics", 7); got != "quantum..." {
		t.Errorf("got %s", got)
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("日本語テキスト", 3); got != "日本語..." {
		t.Errorf("multibyte: got %s", got)
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"linear algebra", "linear algebra"},
		{"  linear\n\talgebra  \r\n", "linear algebra"},
		{"\n\n", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CollapseSpace(tt.in); got != tt.want {
			t.Errorf("CollapseSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"algebra", 3, "alg"},
		{"algebra", 7, "algebra"},
		{"algebra", 20, "algebra"},
		{"algebra", 0, "algebra"},
		{"日本語テキスト", 2, "日本"},
	}
	for _, tt := range tests {
		if got := Clip(tt.in, tt.n); got != tt.want {
			t.Errorf("Clip(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
