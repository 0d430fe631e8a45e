package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"NAB_ACCESS_TOKENS", "NAB_BUDGET_ID", "NAB_API_URL", "NAB_DB_PATH", "NAB_TIMEOUT", "DEBUG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("NAB_ACCESS_TOKENS", "tok-a, tok-b,tok-c")
	t.Setenv("NAB_BUDGET_ID", "budget-1")
	t.Setenv("NAB_DB_PATH", "/tmp/nab-test.db")
	t.Setenv("NAB_TIMEOUT", "5s")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"tok-a", "tok-b", "tok-c"}
	if len(cfg.YNAB.Tokens) != len(want) {
		t.Fatalf("Tokens = %v, want %v", cfg.YNAB.Tokens, want)
	}
	for i, tok := range want {
		if cfg.YNAB.Tokens[i] != tok {
			t.Errorf("Tokens[%d] = %q, want %q", i, cfg.YNAB.Tokens[i], tok)
		}
	}
	if cfg.YNAB.BudgetID != "budget-1" {
		t.Errorf("BudgetID = %q, want %q", cfg.YNAB.BudgetID, "budget-1")
	}
	if cfg.YNAB.APIURL != defaultAPIURL {
		t.Errorf("APIURL = %q, want default %q", cfg.YNAB.APIURL, defaultAPIURL)
	}
	if cfg.YNAB.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.YNAB.Timeout)
	}
	if cfg.DB.Path != "/tmp/nab-test.db" {
		t.Errorf("DB.Path = %q, want /tmp/nab-test.db", cfg.DB.Path)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("NAB_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Error("Load() with invalid NAB_TIMEOUT should return an error")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "NAB_ACCESS_TOKENS=file-token\nNAB_BUDGET_ID=file-budget\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", envFile, err)
	}
	if len(cfg.YNAB.Tokens) != 1 || cfg.YNAB.Tokens[0] != "file-token" {
		t.Errorf("Tokens = %v, want [file-token]", cfg.YNAB.Tokens)
	}
	if cfg.YNAB.BudgetID != "file-budget" {
		t.Errorf("BudgetID = %q, want file-budget", cfg.YNAB.BudgetID)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("Load() with an explicit missing .env path should return an error")
	}
}

func TestValidateReportsAllMissingKeys(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() on empty config should return an error")
	}
	for _, key := range []string{"NAB_ACCESS_TOKENS", "NAB_BUDGET_ID", "NAB_API_URL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Validate() error should name %s, got: %v", key, err)
		}
	}
}

func TestSplitTokens(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "a", []string{"a"}},
		{"multiple", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace", " a , b ", []string{"a", "b"}},
		{"empty entries dropped", "a,,b,", []string{"a", "b"}},
		{"only separators", ",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitTokens(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("splitTokens(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("splitTokens(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "nab.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings() on missing file error = %v", err)
	}

	if settings.Retry.Retries != 2 {
		t.Errorf("Retries = %d, want 2", settings.Retry.Retries)
	}
	if settings.BaseDelayDuration() != 500*time.Millisecond {
		t.Errorf("BaseDelayDuration = %v, want 500ms", settings.BaseDelayDuration())
	}
	if settings.MaxDelayDuration() != 10*time.Second {
		t.Errorf("MaxDelayDuration = %v, want 10s", settings.MaxDelayDuration())
	}
	if settings.DefaultCooldownDuration() != 60*time.Second {
		t.Errorf("DefaultCooldownDuration = %v, want 60s", settings.DefaultCooldownDuration())
	}
	if settings.Pool.WaitForCooldown {
		t.Error("WaitForCooldown should default to false")
	}
}

func TestLoadSettingsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nab.yaml")
	content := "retry:\n  retries: 5\npool:\n  wait_for_cooldown: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if settings.Retry.Retries != 5 {
		t.Errorf("Retries = %d, want 5", settings.Retry.Retries)
	}
	if !settings.Pool.WaitForCooldown {
		t.Error("WaitForCooldown should be true")
	}
	if settings.BaseDelayDuration() != 500*time.Millisecond {
		t.Errorf("BaseDelayDuration = %v, want unchanged default 500ms", settings.BaseDelayDuration())
	}
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative retries", "retry:\n  retries: -1\n"},
		{"jitter out of range", "retry:\n  jitter: 1.5\n"},
		{"bad duration", "retry:\n  base_delay: fast\n"},
		{"bad cooldown", "pool:\n  default_cooldown: never\n"},
		{"not yaml", "{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nab.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSettings(path); err == nil {
				t.Error("LoadSettings() should reject this file")
			}
		})
	}
}
