package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAppName, "floatrand-test")
	t.Setenv(EnvSeed, "42")
	t.Setenv(EnvTickRate, "30")
	t.Setenv(EnvPollInterval, "0.25")
	t.Setenv(EnvDefaultContainer, "Light")
	t.Setenv(EnvGroup, "Stage")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.AppName != "floatrand-test" || cfg.Seed != 42 || cfg.TickRate != 30 ||
		cfg.PollInterval != 0.25 || cfg.DefaultContainer != "Light" || cfg.Group != "Stage" {
		t.Errorf("ApplyEnv() = %+v", cfg)
	}
}

func TestApplyEnv_Malformed(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvSeed, "-1"},
		{EnvTickRate, "fast"},
		{EnvPollInterval, "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := Default().ApplyEnv()
			if err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("ApplyEnv() error = %v, 期望包含 %s", err, tt.key)
			}
		})
	}
}

func TestLoadWithEnv_RevalidatesAndReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	// .env 中的变量只在未设置时生效
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvSeed+"=9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSeed, "")
	os.Unsetenv(EnvSeed)

	cfg, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if cfg.Seed != 9 {
		t.Errorf("Seed = %d, 期望 9（来自 .env）", cfg.Seed)
	}

	t.Setenv(EnvTickRate, "0")
	if _, err := LoadWithEnv(""); err == nil {
		t.Error("tickRate=0 应验证失败")
	}

	t.Setenv(EnvTickRate, "60")
	t.Setenv(EnvPollInterval, "NaN")
	if _, err := LoadWithEnv(""); err == nil || !strings.Contains(err.Error(), "finite") {
		t.Errorf("pollInterval=NaN 应验证失败, err = %v", err)
	}
}
