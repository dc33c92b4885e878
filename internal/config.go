package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/mindra/internal/canvas"
	"github.com/starford/mindra/internal/graph"
	"github.com/starford/mindra/internal/session"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" toml:"app"`
	Vault  VaultConfig       `yaml:"vault" toml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth" toml:"auth"`
	Graph  GraphConfig       `yaml:"graph" toml:"graph"`
	Theme  ThemeConfig       `yaml:"theme" toml:"theme"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	return c.Theme.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig points at an optional directory of Markdown files imported as
// notes. An empty path disables the import.
type VaultConfig struct {
	Path  string `yaml:"path" toml:"path"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

// Enabled reports whether a vault is configured.
func (c *VaultConfig) Enabled() bool { return c.Path != "" }

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return fmt.Errorf("vault: watch is enabled but path is empty")
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// GraphConfig tunes the interactive graph and its rendering sessions.
type GraphConfig struct {
	DoubleTap      time.Duration `yaml:"double_tap" toml:"double_tap"`
	ZoomAboutFocus bool          `yaml:"zoom_about_focus" toml:"zoom_about_focus"`
	FontSize       float64       `yaml:"font_size" toml:"font_size"`
	SessionTTL     time.Duration `yaml:"session_ttl" toml:"session_ttl"`
	MaxSessions    int           `yaml:"max_sessions" toml:"max_sessions"`
	GraphThrottle  time.Duration `yaml:"graph_throttle" toml:"graph_throttle"`
	RedrawThrottle time.Duration `yaml:"redraw_throttle" toml:"redraw_throttle"`
}

// Validate validates the graph configuration.
func (c *GraphConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DoubleTap, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.FontSize, validation.Required, validation.Min(1.0), validation.Max(256.0)),
		validation.Field(&c.SessionTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxSessions, validation.Min(0)),
		validation.Field(&c.GraphThrottle, validation.Min(time.Duration(0))),
		validation.Field(&c.RedrawThrottle, validation.Min(time.Duration(0))),
	)
}

// ThemeConfig holds the renderer colours as #RGB or #RRGGBB strings.
type ThemeConfig struct {
	Background   string  `yaml:"background" toml:"background"`
	Node         string  `yaml:"node" toml:"node"`
	SelectedNode string  `yaml:"selected_node" toml:"selected_node"`
	Text         string  `yaml:"text" toml:"text"`
	Edge         string  `yaml:"edge" toml:"edge"`
	EdgeWidth    float64 `yaml:"edge_width" toml:"edge_width"`
}

// Validate validates the theme configuration.
func (c *ThemeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Background, validation.Required, is.HexColor),
		validation.Field(&c.Node, validation.Required, is.HexColor),
		validation.Field(&c.SelectedNode, validation.Required, is.HexColor),
		validation.Field(&c.Text, validation.Required, is.HexColor),
		validation.Field(&c.Edge, validation.Required, is.HexColor),
		validation.Field(&c.EdgeWidth, validation.Required, validation.Min(0.1)),
	)
}

// ToTheme converts the colours for the renderer.
func (c *ThemeConfig) ToTheme() (graph.Theme, error) {
	t := graph.Theme{EdgeWidth: c.EdgeWidth}
	var err error
	if t.Background, err = canvas.ParseHex(c.Background); err != nil {
		return graph.Theme{}, err
	}
	if t.Node, err = canvas.ParseHex(c.Node); err != nil {
		return graph.Theme{}, err
	}
	if t.SelectedNode, err = canvas.ParseHex(c.SelectedNode); err != nil {
		return graph.Theme{}, err
	}
	if t.Text, err = canvas.ParseHex(c.Text); err != nil {
		return graph.Theme{}, err
	}
	if t.Edge, err = canvas.ParseHex(c.Edge); err != nil {
		return graph.Theme{}, err
	}
	return t, nil
}

// SessionOptions combines the graph and theme sections into session
// manager options.
func (c *Config) SessionOptions() (session.Options, error) {
	theme, err := c.Theme.ToTheme()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		TTL:         c.Graph.SessionTTL,
		FontSize:    c.Graph.FontSize,
		MaxSessions: c.Graph.MaxSessions,
		Engine: graph.Options{
			DoubleTap:      c.Graph.DoubleTap,
			ZoomAboutFocus: c.Graph.ZoomAboutFocus,
			Theme:          theme,
		},
	}, nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:  "./vault",
			Watch: true,
		},
		SQLite: SQLiteConfig{
			Path: "./mindra.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Graph: GraphConfig{
			DoubleTap:      graph.DefaultDoubleTap,
			FontSize:       canvas.DefaultFontSize,
			SessionTTL:     30 * time.Minute,
			MaxSessions:    64,
			GraphThrottle:  2 * time.Second,
			RedrawThrottle: 50 * time.Millisecond,
		},
		Theme: ThemeConfig{
			Background:   "#FFFFFF",
			Node:         "#6200EE",
			SelectedNode: "#3700B3",
			Text:         "#FFFFFF",
			Edge:         "#BB86FC",
			EdgeWidth:    3,
		},
	}
}
