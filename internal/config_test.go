package internal

import (
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/mindra/internal/graph"
	pkgconfig "github.com/starford/mindra/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		t.Fatalf("SessionOptions: %v", err)
	}
	if opts.Engine.Theme != graph.DefaultTheme {
		t.Errorf("default theme = %+v, want graph.DefaultTheme", opts.Engine.Theme)
	}
	if opts.Engine.DoubleTap != graph.DefaultDoubleTap || opts.TTL != 30*time.Minute {
		t.Errorf("options = %+v", opts)
	}
}

func TestVaultConfig(t *testing.T) {
	cfg := VaultConfig{}
	if err := cfg.Validate(); err != nil || cfg.Enabled() {
		t.Errorf("empty vault: err=%v enabled=%v", err, cfg.Enabled())
	}
	cfg.Watch = true
	if err := cfg.Validate(); err == nil {
		t.Error("watch without path should fail")
	}
}

func TestGraphConfig_Invalid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Graph.DoubleTap = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero double tap should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Graph.MaxSessions = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative session limit should fail")
	}
}

func TestThemeConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Theme.Node = "purple"
	if err := cfg.Validate(); err == nil {
		t.Error("named colour should fail validation")
	}

	cfg = NewDefaultConfig()
	cfg.Theme.Edge = "#abc"
	theme, err := cfg.Theme.ToTheme()
	if err != nil {
		t.Fatal(err)
	}
	if theme.Edge != (color.RGBA{0xAA, 0xBB, 0xCC, 0xFF}) {
		t.Errorf("edge = %v", theme.Edge)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[app]
log_level = "debug"

[app.http]
port = 9000

[sqlite]
path = "/tmp/m.db"

[vault]
path = ""
watch = false

[graph]
double_tap = "250ms"
zoom_about_focus = true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9000 || cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Vault.Enabled() || cfg.Graph.DoubleTap != 250*time.Millisecond || !cfg.Graph.ZoomAboutFocus {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Theme.Node != "#6200EE" {
		t.Error("defaults not kept for missing sections")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "app:\n  http:\n    port: 8181\nauth:\n  mode: token\n  token: ${MINDRA_TEST_TOKEN}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINDRA_TEST_TOKEN", "s3cret")
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Auth.AuthEnabled() || cfg.Auth.Token != "s3cret" || cfg.App.HTTP.Port != 8181 {
		t.Errorf("cfg = %+v", cfg)
	}
}
