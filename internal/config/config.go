package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/pkg/client"
)

// EnvPrefix is prepended to every environment override, e.g. TUBEFETCH_DOWNLOAD_WORKERS.
const EnvPrefix = "TUBEFETCH"

// Config holds all application configuration.
type Config struct {
	Paths       PathsConfig       `mapstructure:"paths"`
	Download    DownloadConfig    `mapstructure:"download"`
	Tools       ToolsConfig       `mapstructure:"tools"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// PathsConfig holds filesystem locations.
type PathsConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	CookiesDir   string `mapstructure:"cookies_dir"`
	WorkspaceDir string `mapstructure:"workspace_dir"` // empty means os.TempDir()
	Socket       string `mapstructure:"socket"`
}

// DownloadConfig holds download behavior.
type DownloadConfig struct {
	DefaultQuality string        `mapstructure:"default_quality"`
	Container      string        `mapstructure:"container"`
	Backend        string        `mapstructure:"backend"` // youtube | ytdlp
	MaxRate        int64         `mapstructure:"max_rate"` // bytes/s, 0 = unlimited
	Timeout        time.Duration `mapstructure:"timeout"`
	Workers        int           `mapstructure:"workers"`
	Notify         bool          `mapstructure:"notify"`
	CopyPath       bool          `mapstructure:"copy_path"`
}

// ToolsConfig holds external binaries.
type ToolsConfig struct {
	FFmpeg  string `mapstructure:"ffmpeg"`
	FFprobe string `mapstructure:"ffprobe"`
	YtDlp   string `mapstructure:"ytdlp"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// MaintenanceConfig holds the periodic cleanup jobs.
type MaintenanceConfig struct {
	HistoryRetentionDays int           `mapstructure:"history_retention_days"` // 0 disables pruning
	PruneCron            string        `mapstructure:"prune_cron"`
	WorkspaceSweepCron   string        `mapstructure:"workspace_sweep_cron"`
	WorkspaceMaxAge      time.Duration `mapstructure:"workspace_max_age"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("tubefetch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tubefetch")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("paths.data_dir", filepath.Join(home, ".local", "share", "tubefetch"))
	v.SetDefault("paths.output_dir", DefaultOutputDir())
	v.SetDefault("paths.cookies_dir", filepath.Join(home, ".local", "share", "tubefetch", "cookies"))
	v.SetDefault("paths.workspace_dir", "")
	v.SetDefault("paths.socket", client.GetDefaultSocketPath())

	v.SetDefault("download.default_quality", domain.TopTier.String())
	v.SetDefault("download.container", domain.DefaultContainer)
	v.SetDefault("download.backend", "youtube")
	v.SetDefault("download.max_rate", 0)
	v.SetDefault("download.timeout", 30*time.Second)
	v.SetDefault("download.workers", 3)
	v.SetDefault("download.notify", false)
	v.SetDefault("download.copy_path", false)

	v.SetDefault("tools.ffmpeg", "ffmpeg")
	v.SetDefault("tools.ffprobe", "ffprobe")
	v.SetDefault("tools.ytdlp", "yt-dlp")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.dir", "")

	v.SetDefault("maintenance.history_retention_days", 30)
	v.SetDefault("maintenance.prune_cron", "0 4 * * *")
	v.SetDefault("maintenance.workspace_sweep_cron", "*/30 * * * *")
	v.SetDefault("maintenance.workspace_max_age", 6*time.Hour)
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if _, err := c.Download.Quality(); err != nil {
		return fmt.Errorf("download.default_quality: %w", err)
	}
	switch c.Download.Backend {
	case "youtube", "ytdlp":
	default:
		return fmt.Errorf("download.backend: unknown backend %q", c.Download.Backend)
	}
	if c.Download.Workers < 1 {
		return fmt.Errorf("download.workers: must be at least 1, got %d", c.Download.Workers)
	}
	return nil
}

// Quality returns the parsed default quality tier.
func (d DownloadConfig) Quality() (domain.QualityTier, error) {
	return domain.ParseQualityTier(d.DefaultQuality)
}

// DefaultOutputDir returns ~/Downloads when it exists, otherwise the home directory.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}

	downloads := filepath.Join(home, "Downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		return downloads
	}
	return home
}
