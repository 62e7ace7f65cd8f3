package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Graph   GraphConfig       `yaml:"graph"`
	Uploads UploadsConfig     `yaml:"uploads"`
	Auth    AuthConfig        `yaml:"auth"`
	Sync    SyncConfig        `yaml:"sync"`
	Import  ImportConfig      `yaml:"import"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	if err := c.Uploads.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Sync.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// GraphConfig holds the path to the graph database file.
type GraphConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the graph configuration.
func (c *GraphConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// UploadsConfig holds the attachment blob store directory.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the uploads configuration.
func (c *UploadsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// AdminToken guards the admin surface (export/import/wipe/sync) separately
// in both modes; leaving it empty disables that surface.
type AuthConfig struct {
	Mode       string `yaml:"mode"`
	Token      string `yaml:"token"`
	AdminToken string `yaml:"admin_token"`
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

// SyncConfig holds the upstream service-desk connection. An empty URL
// disables sync entirely.
type SyncConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Enabled reports whether an upstream is configured.
func (c *SyncConfig) Enabled() bool {
	return c.URL != ""
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Token == "" {
		return fmt.Errorf("sync: url is set but token is empty")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, is.URL),
	)
}

// ImportConfig holds the optional drop directory watched for JSON tree
// dumps. Empty disables the watcher.
type ImportConfig struct {
	DropDir string `yaml:"drop_dir"`
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
		Graph: GraphConfig{
			Path: "./othala.db",
		},
		Uploads: UploadsConfig{
			Dir: "./uploads",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
