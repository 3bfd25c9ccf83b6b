package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/inamate/viewport-go/internal/engine"
	"github.com/inamate/inamate/viewport-go/internal/transform"
)

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	SessionSecret  string        `envconfig:"SESSION_SECRET" default:"dev-secret-change-in-production"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	LogLevel       slog.Level    `envconfig:"LOG_LEVEL" default:"info"`

	ScrollRepeatInterval time.Duration `envconfig:"SCROLL_REPEAT_INTERVAL" default:"200ms"`
	ScrollStep           float64       `envconfig:"SCROLL_STEP" default:"20"`
	ScrollPageFraction   float64       `envconfig:"SCROLL_PAGE_FRACTION" default:"0.9"`
	CanvasWidth          float64       `envconfig:"CANVAS_WIDTH" default:"4000"`
	CanvasHeight         float64       `envconfig:"CANVAS_HEIGHT" default:"4000"`
	TransformShorthand   bool          `envconfig:"TRANSFORM_SHORTHAND" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginPatterns strips the scheme from each origin, the form the websocket
// origin check expects.
func (c *Config) OriginPatterns() []string {
	origins := c.Origins()
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, o)
	}
	return out
}

// Parser builds the transform parser.
func (c *Config) Parser() *transform.Parser {
	return transform.NewParser(transform.Options{Shorthand: c.TransformShorthand})
}

// EngineOptions builds the per-canvas engine configuration.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Parser:         c.Parser(),
		StepSize:       c.ScrollStep,
		PageFraction:   c.ScrollPageFraction,
		RepeatInterval: c.ScrollRepeatInterval,
		CanvasWidth:    c.CanvasWidth,
		CanvasHeight:   c.CanvasHeight,
	}
}
