package display

import (
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1294663680, "1.2 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBlockSize(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{4096, "4 KiB"},
		{8192, "8 KiB"},
		{65536, "64 KiB"},
		{512, "512 B"},
	}
	for _, tt := range tests {
		if got := FormatBlockSize(tt.in); got != tt.want {
			t.Errorf("FormatBlockSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"yes", "yes\n", true},
		{"y", "y\n", true},
		{"uppercase Y", "Y\n", true},
		{"no", "no\n", false},
		{"empty line", "\n", false},
		{"eof", "", false},
		{"garbage", "sure why not\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confirm(strings.NewReader(tt.in), "Proceed?"); got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
