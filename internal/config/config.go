package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/yourorg/webstudio-go/internal/project"
)

// Config holds daemon runtime configuration.
type Config struct {
	Listen         string // JSON-RPC listener
	HTTPAddr       string // HTTP management / health
	HTTPToken      string // optional token for HTTP management endpoints
	DataDir        string // data directory (~/.webstudio/data)
	SandboxDir     string // sandbox mirror root (~/.webstudio/sandbox)
	SettingsPath   string // settings file (~/.webstudio/settings.toml)
	LogLevel       string // debug|info|warn|error
	HistoryLimit   int    // max undo snapshots kept per session
	AiBaseURL      string // code generation service endpoint
	AiToken        string
	ProtectedPaths []string // paths the dispatcher refuses to delete or rename
	InstallCommand []string // dependency install command run after mount
	DevCommand     []string // dev server command for live preview
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LISTEN", "127.0.0.1:7610")
	v.SetDefault("HTTP_ADDR", "127.0.0.1:7611")
	v.SetDefault("HTTP_TOKEN", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HISTORY_LIMIT", 100)
	v.SetDefault("AI_BASE_URL", "https://api.example.com")
	v.SetDefault("AI_TOKEN", "")
	v.SetDefault("PROTECTED_PATHS", project.DefaultProtectedPaths())
	v.SetDefault("INSTALL_COMMAND", []string{"npm", "install"})
	v.SetDefault("DEV_COMMAND", []string{"npm", "run", "dev"})
}

// Load reads config from ~/.webstudio/settings.toml and applies defaults.
func Load(dataDirOverride string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("user home: %w", err)
	}

	settingsPath := filepath.Join(home, ".webstudio", "settings.toml")
	dataDir := filepath.Join(home, ".webstudio", "data")
	if dataDirOverride != "" {
		dataDir = dataDirOverride
	}

	v := viper.New()
	v.SetConfigFile(settingsPath)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// missing file: continue with defaults
	}

	cfg := &Config{
		Listen:         v.GetString("LISTEN"),
		HTTPAddr:       v.GetString("HTTP_ADDR"),
		HTTPToken:      v.GetString("HTTP_TOKEN"),
		DataDir:        dataDir,
		SandboxDir:     filepath.Join(home, ".webstudio", "sandbox"),
		SettingsPath:   settingsPath,
		LogLevel:       v.GetString("LOG_LEVEL"),
		HistoryLimit:   v.GetInt("HISTORY_LIMIT"),
		AiBaseURL:      v.GetString("AI_BASE_URL"),
		AiToken:        v.GetString("AI_TOKEN"),
		ProtectedPaths: v.GetStringSlice("PROTECTED_PATHS"),
		InstallCommand: v.GetStringSlice("INSTALL_COMMAND"),
		DevCommand:     v.GetStringSlice("DEV_COMMAND"),
	}

	return cfg, nil
}

// Reload re-reads settings.toml and updates runtime fields (excluding
// CLI overrides like DataDir). ProtectedPaths takes effect immediately;
// HistoryLimit applies the next time a project is activated.
func (c *Config) Reload() error {
	v := viper.New()
	v.SetConfigFile(c.SettingsPath)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
		// missing file: keep defaults
	}

	c.HTTPToken = v.GetString("HTTP_TOKEN")
	c.HistoryLimit = v.GetInt("HISTORY_LIMIT")
	c.AiBaseURL = v.GetString("AI_BASE_URL")
	c.AiToken = v.GetString("AI_TOKEN")
	c.ProtectedPaths = v.GetStringSlice("PROTECTED_PATHS")
	c.InstallCommand = v.GetStringSlice("INSTALL_COMMAND")
	c.DevCommand = v.GetStringSlice("DEV_COMMAND")
	return nil
}
