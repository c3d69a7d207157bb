package config

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizePathArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/games/dump", "/games/dump"},
		{"single trailing slash", "/games/dump/", "/games/dump"},
		{"multiple trailing slashes", "/games/dump///", "/games/dump"},
		{"root path", "/", "/"},
		{"relative path", "dump", "dump"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePathArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizePathArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func validBase() Config {
	cfg := DefaultConfig()
	cfg.InputPath = "/games/dump"
	cfg.OutputImage = "/images/game.img"
	return cfg
}

func TestValidate_Optimization(t *testing.T) {
	tests := []struct {
		name    string
		opt     Optimization
		wantErr bool
	}{
		{"space is valid", OptimizeSpace, false},
		{"time is valid", OptimizeTime, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "speed", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			cfg.Optimization = tt.opt
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Label(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		{"empty means derive", "", false},
		{"simple label", "MYGAME", false},
		{"dots underscores hyphens", "my_game-1.0", false},
		{"exactly 16 chars", strings.Repeat("a", 16), false},
		{"17 chars rejected", strings.Repeat("a", 17), true},
		{"space rejected", "MY GAME", true},
		{"bang rejected", "GAME!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			cfg.Label = tt.label
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RequiresArgs(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail without positional args")
	}

	cfg.InputPath = "/in"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail without an output image")
	}

	cfg.OutputImage = "out.img"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_CheckOnlySkipsArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() should pass with empty args in check mode, got: %v", err)
	}
}

func TestValidate_MountTimeout(t *testing.T) {
	cfg := validBase()
	cfg.MountTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject a zero mount timeout")
	}
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		wantErr bool
	}{
		{"separate trees", "/games/dump", "/images/game.img", false},
		{"output inside input", "/games/dump", "/games/dump/game.img", true},
		{"output equals input", "/games/dump", "/games/dump", true},
		{"similar prefix not nested", "/games/dump", "/games/dump2/game.img", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ValidatePaths(tt.input, tt.output)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaths(%q, %q) error = %v, wantErr %v",
					tt.input, tt.output, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Optimization != OptimizeSpace {
		t.Errorf("default Optimization = %q, want %q", cfg.Optimization, OptimizeSpace)
	}
	if cfg.ColorMode != ColorAuto {
		t.Errorf("default ColorMode = %q, want %q", cfg.ColorMode, ColorAuto)
	}
	if cfg.MountTimeout != 10*time.Second {
		t.Errorf("default MountTimeout = %v, want 10s", cfg.MountTimeout)
	}
	if cfg.MountPollInterval != 100*time.Millisecond {
		t.Errorf("default MountPollInterval = %v, want 100ms", cfg.MountPollInterval)
	}
	if cfg.AssumeYes {
		t.Error("default AssumeYes should be false")
	}
	if cfg.DryRun {
		t.Error("default DryRun should be false")
	}
}

func TestDefaultConfig_EnvOverrides(t *testing.T) {
	t.Setenv("UFS2PACK_MAKEFS", "/opt/makefs")
	t.Setenv("UFS2PACK_FUSE_ARCHIVE", "/opt/fuse-archive")
	t.Setenv("UFS2PACK_MOUNT_TIMEOUT", "30s")

	cfg := DefaultConfig()
	if cfg.MakefsPath != "/opt/makefs" {
		t.Errorf("MakefsPath = %q, want /opt/makefs", cfg.MakefsPath)
	}
	if cfg.FuseArchivePath != "/opt/fuse-archive" {
		t.Errorf("FuseArchivePath = %q, want /opt/fuse-archive", cfg.FuseArchivePath)
	}
	if cfg.MountTimeout != 30*time.Second {
		t.Errorf("MountTimeout = %v, want 30s", cfg.MountTimeout)
	}
}
