package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DemoImageURL is the source image of the built-in demo event.
const DemoImageURL = "https://mblogthumb-phinf.pstatic.net/MjAyMzEwMDhfMjMz/MDAxNjk2NzMyNTA3NzM1.O5iVGUwOEGFbxoqzH9H5H2qwFmbLNdOR7PmuuNE2PMAg.eY7eLpHanrC_AWz-9T2VCZamarnMq_5i6MBHboR2Z1Ug.JPEG.qmfosej/IMG_7989.JPG?type=w800"

// Config holds all puzzle service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Image   ImageConfig   `yaml:"image"`
	Event   EventConfig   `yaml:"event"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// ImageConfig configures the source image load.
type ImageConfig struct {
	// URL overrides the event's image URL when set.
	URL             string        `yaml:"url" validate:"omitempty,url"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" validate:"gte=0"`
	MaxBytes        int64         `yaml:"max_bytes" validate:"gte=0"`
	PlaceholderSize int           `yaml:"placeholder_size" validate:"min=1,max=4096"`
}

// EventConfig selects the event. With an empty Dir the built-in demo event
// is served.
type EventConfig struct {
	ID  string `yaml:"id"`
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns a config that serves the demo event.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Image: ImageConfig{
			URL:             "",
			FetchTimeout:    15 * time.Second,
			MaxBytes:        20 << 20,
			PlaceholderSize: 100,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path yields defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PUZZLE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv("PUZZLE_IMAGE_URL"); ok {
		c.Image.URL = strings.TrimSpace(v)
	}
	if v := os.Getenv("PUZZLE_IMAGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PUZZLE_IMAGE_TIMEOUT: %w", err)
		}
		c.Image.FetchTimeout = d
	}
	if v := os.Getenv("PUZZLE_IMAGE_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("PUZZLE_IMAGE_MAX_BYTES: %w", err)
		}
		c.Image.MaxBytes = n
	}
	if v := os.Getenv("PUZZLE_EVENT_ID"); v != "" {
		c.Event.ID = v
	}
	if v := os.Getenv("PUZZLE_EVENTS_DIR"); v != "" {
		c.Event.Dir = v
	}
	if v := os.Getenv("PUZZLE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PUZZLE_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
