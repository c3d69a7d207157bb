package label

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"simple", "MYGAME", false},
		{"digits and punctuation", "Game_1.2-beta", false},
		{"exactly 16 chars", "ABCDEFGHIJKLMNOP", false},
		{"17 chars rejected", "ABCDEFGHIJKLMNOPQ", true},
		{"empty rejected", "", true},
		{"space rejected", "MY GAME", true},
		{"slash rejected", "MY/GAME", true},
		{"exclamation rejected", "GAME!", true},
		{"non-ascii rejected", "GÄME", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		titleID string
		title   string
		want    string
		wantErr bool
	}{
		{"documented example", "CUSA12345", "My Game!", "12345MyGame", false},
		{"long title truncated", "CUSA00001", "An Extremely Long Game Title", "00001AnExtremely", false},
		{"short id kept whole", "AB1", "Game", "AB1Game", false},
		{"punctuation stripped before split", "CU-SA_123.45", "Go: The Game", "12345GoTheGame", false},
		{"empty name", "CUSA12345", "", "12345", false},
		{"empty id", "", "My Game", "MyGame", false},
		{"both empty", "", "", "", true},
		{"only punctuation", "---", "!!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.titleID, tt.title)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Generate(%q, %q) error = %v, wantErr %v", tt.titleID, tt.title, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Generate(%q, %q) = %q, want %q", tt.titleID, tt.title, got, tt.want)
			}
		})
	}
}

// Generated labels must always satisfy Validate so the final builder run
// never sees a label the superblock cannot hold.
func TestGenerateWithinValidationRules(t *testing.T) {
	inputs := []struct{ id, title string }{
		{"CUSA12345", "My Game!"},
		{"PPSA01987", "Shadows of the Forgotten Kingdom: Remastered"},
		{"XX", "42"},
	}
	for _, in := range inputs {
		got, err := Generate(in.id, in.title)
		if err != nil {
			t.Fatalf("Generate(%q, %q) unexpected error: %v", in.id, in.title, err)
		}
		if err := Validate(got); err != nil {
			t.Errorf("Generate(%q, %q) = %q fails Validate: %v", in.id, in.title, got, err)
		}
		if len(got) > MaxLen {
			t.Errorf("Generate(%q, %q) = %q exceeds %d chars", in.id, in.title, got, MaxLen)
		}
	}
}
