package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"gopkg.in/yaml.v3"

	"github.com/prathamesonar/signature-engine/images"
	"github.com/prathamesonar/signature-engine/internal/locale"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
}

var (
	DefaultLocation string = "./signature-engine.toml" // Default location of the config file
	Settings        Config                             // Set by Read.
)

// Config is the root of the config
type Config struct {
	Server   Server   `toml:"server" yaml:"server" valid:"required"`
	Document Document `toml:"document" yaml:"document" valid:"required"`
	Log      Log      `toml:"log" yaml:"log" valid:"required"`
	Database Database `toml:"database" yaml:"database" valid:"optional"`
	Seal     Seal     `toml:"seal" yaml:"seal" valid:"optional"`
}

// Server configures the HTTP transport.
type Server struct {
	Addr            string   `toml:"addr" yaml:"addr" valid:"required"`
	BodyLimit       int64    `toml:"body_limit" yaml:"body_limit" valid:"optional"`
	ReadTimeout     Duration `toml:"read_timeout" yaml:"read_timeout" valid:"optional"`
	WriteTimeout    Duration `toml:"write_timeout" yaml:"write_timeout" valid:"optional"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout" valid:"optional"`
	AllowedOrigins  []string `toml:"allowed_origins" yaml:"allowed_origins" valid:"optional"`
}

// Document configures the base document and stamping.
type Document struct {
	BasePath string `toml:"base_path" yaml:"base_path" valid:"required"`
	// DateLocale is a POSIX locale name such as "en_GB". Empty uses the
	// process locale.
	DateLocale string `toml:"date_locale" yaml:"date_locale" valid:"optional"`
	// DateLayout is a Go time layout that overrides DateLocale.
	DateLayout   string `toml:"date_layout" yaml:"date_layout" valid:"optional"`
	MaxImageSide int    `toml:"max_image_side" yaml:"max_image_side" valid:"optional"`
	// MaxImagePixels rejects larger signature images before decoding.
	MaxImagePixels int64 `toml:"max_image_pixels" yaml:"max_image_pixels" valid:"optional"`
}

// Log configures the process logger.
type Log struct {
	Level  string `toml:"level" yaml:"level" valid:"in(debug|info|warn|error)"`
	Format string `toml:"format" yaml:"format" valid:"in(text|json)"`
}

// Database enables persistent hash records.
type Database struct {
	URL string `toml:"url" yaml:"url" valid:"optional"`
}

// Seal enables CMS seals over stamped documents.
type Seal struct {
	PKCS12      string `toml:"pkcs12" yaml:"pkcs12" valid:"optional"`
	Password    string `toml:"password" yaml:"password" valid:"optional"`
	TSAURL      string `toml:"tsa_url" yaml:"tsa_url" valid:"url,optional"`
	TSAUsername string `toml:"tsa_username" yaml:"tsa_username" valid:"optional"`
	TSAPassword string `toml:"tsa_password" yaml:"tsa_password" valid:"optional"`
}

// Duration is a time.Duration written as "30s" in config files.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":5000",
			BodyLimit:       50 << 20,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			AllowedOrigins:  []string{"*"},
		},
		Document: Document{
			BasePath:       filepath.Join("pdfs", "sample.pdf"),
			MaxImageSide:   2048,
			MaxImagePixels: images.DefaultMaxPixels,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// ValidateFields validates all the fields of the config
func (c Config) ValidateFields() error {
	_, err := govalidator.ValidateStruct(c)
	if err != nil {
		return err
	}
	if c.Server.BodyLimit <= 0 {
		return errors.New("server.body_limit must be positive")
	}
	if c.Document.MaxImageSide < 0 {
		return errors.New("document.max_image_side must not be negative")
	}
	if c.Document.MaxImagePixels < 0 {
		return errors.New("document.max_image_pixels must not be negative")
	}
	return nil
}

// Load reads configfile on top of the defaults, applies environment
// overrides and validates the result. An empty configfile skips the file.
// Files ending in .yaml or .yml are YAML, anything else TOML.
func Load(configfile string) (Config, error) {
	c := Default()

	if configfile != "" {
		data, err := os.ReadFile(configfile)
		if err != nil {
			return Config{}, fmt.Errorf("config file is missing: %w", err)
		}
		switch strings.ToLower(filepath.Ext(configfile)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &c)
		default:
			_, err = toml.Decode(string(data), &c)
		}
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", configfile, err)
		}
	}

	c.applyEnv(os.Getenv)

	if err := c.ValidateFields(); err != nil {
		return Config{}, fmt.Errorf("config is not valid: %w", err)
	}
	return c, nil
}

// Read loads configfile into Settings.
func Read(configfile string) error {
	c, err := Load(configfile)
	if err != nil {
		return err
	}
	Settings = c
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if url := getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if path := getenv("BASE_PDF"); path != "" {
		c.Document.BasePath = path
	}
	if loc := getenv("SIGN_LOCALE"); loc != "" {
		c.Document.DateLocale = loc
	}
}

// Layout resolves the time layout used for date fields.
func (d Document) Layout() string {
	if d.DateLayout != "" {
		return d.DateLayout
	}
	if d.DateLocale != "" {
		return locale.ShortDateLayout(locale.Parse(d.DateLocale))
	}
	return locale.HostLayout()
}

// NewLogger builds a logger writing to w.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
