package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/PPC_GO/internal/models"
)

type Config struct {
	PPCURLs     []string
	SQPURLs     []string
	OrganicURL  string
	SinkURL     string
	SinkSecret  string
	Port        string
	HTTPTimeout time.Duration
	SetTTL      time.Duration
	LogLevel    slog.Level
	CORSOrigins []string
	Settings    models.Settings
}

// fileConfig is the optional YAML file pointed to by ANALYSIS_CONFIG.
type fileConfig struct {
	Settings models.Settings `yaml:"settings"`
	CORS     struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`
}

// FromEnv layers defaults, .env, the YAML file and the environment, in that
// order, and validates the resulting analysis settings.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:        envOr("PORT", "8080"),
		HTTPTimeout: envSeconds("HTTP_TIMEOUT_SECONDS", 15*time.Second),
		SetTTL:      envSeconds("SET_TTL_SECONDS", 24*time.Hour),
		LogLevel:    slog.LevelInfo,
		Settings:    models.DefaultSettings(),
		CORSOrigins: []string{"http://localhost:3000"},
		PPCURLs:     csvList(os.Getenv("PPC_REPORT_URLS")),
		SQPURLs:     csvList(os.Getenv("SQP_REPORT_URLS")),
		OrganicURL:  os.Getenv("ORGANIC_REPORT_URL"),
		SinkURL:     os.Getenv("SINK_URL"),
		SinkSecret:  os.Getenv("SINK_SECRET"),
	}
	if os.Getenv("LOG_LEVEL") == "debug" {
		cfg.LogLevel = slog.LevelDebug
	}

	if path := os.Getenv("ANALYSIS_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if v, ok := envFloat("ACOS_TARGET"); ok {
		cfg.Settings.ACOSTarget = v
	}
	if v, ok := envFloat("ACOS_THRESHOLD"); ok {
		cfg.Settings.ACOSThreshold = v
	}
	if v := os.Getenv("CLICK_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Settings.ClickThreshold = n
		}
	}
	if v := csvList(os.Getenv("CORS_ORIGINS")); len(v) > 0 {
		cfg.CORSOrigins = v
	}

	if err := cfg.Settings.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	// keys missing from the file keep their current value
	fc := fileConfig{Settings: c.Settings}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.Settings = fc.Settings
	if len(fc.CORS.Origins) > 0 {
		c.CORSOrigins = fc.CORS.Origins
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envSeconds(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			return d
		}
	}
	return def
}

func envFloat(k string) (float64, bool) {
	v := os.Getenv(k)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func csvList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
