package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables, applies defaults and
// validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable lookup. An empty result from
// lookup counts as unset.
func LoadFrom(lookup func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// envTag is the parsed env/envAlt/default/required tag set of one field.
type envTag struct {
	names    []string // primary first
	def      string
	required bool
}

func parseTag(f reflect.StructField) (envTag, bool) {
	primary := f.Tag.Get("env")
	if primary == "" {
		return envTag{}, false
	}
	tag := envTag{
		names:    []string{primary},
		def:      f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}
	if alt := f.Tag.Get("envAlt"); alt != "" {
		tag.names = append(tag.names, alt)
	}
	return tag, true
}

// resolve returns the first non-empty variable, then the default.
func (t envTag) resolve(lookup func(string) string) (string, error) {
	for _, name := range t.names {
		if v := lookup(name); v != "" {
			return v, nil
		}
	}
	if t.required {
		return "", fmt.Errorf("required environment variable %s is not set", t.names[0])
	}
	return t.def, nil
}

// loadStruct walks nested section structs and fills tagged fields.
func loadStruct(v reflect.Value, lookup func(string) string) error {
	t := v.Type()

	for i := range t.NumField() {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fv, lookup); err != nil {
				return err
			}
			continue
		}

		tag, ok := parseTag(field)
		if !ok {
			continue
		}
		raw, err := tag.resolve(lookup)
		if err != nil {
			return err
		}
		if raw == "" {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", tag.names[0], raw, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// setField parses raw into the field's type: string, bool, int kinds,
// time.Duration, or a comma-separated []string with blanks dropped.
func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type())
		}
		field.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// problems collects validation failures.
type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var p problems

	u, err := url.Parse(c.Extractor.URL)
	p.check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
		"EXTRACTOR_URL (%q) must be an absolute http(s) URL", c.Extractor.URL)
	p.check(c.Extractor.Timeout > 0, "EXTRACTOR_TIMEOUT must be positive")
	p.check(c.Extractor.MaxResponseSize > 0, "EXTRACTOR_MAX_RESPONSE_SIZE must be positive")

	p.check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	p.check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	p.check(c.Upload.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
	p.check(c.Upload.MaxConcurrent > 0, "UPLOAD_MAX_CONCURRENT must be positive")
	p.check(c.Upload.MaxWaitTime > 0, "UPLOAD_MAX_WAIT_TIME must be positive")

	p.check(c.Session.MaxActive > 0, "SESSION_MAX_ACTIVE must be positive")
	p.check(c.Session.ResultCacheSize >= 0, "SESSION_RESULT_CACHE_SIZE must be non-negative")
	p.check(c.Session.CookieName != "", "SESSION_COOKIE_NAME must not be empty")

	if c.Database.Enabled() {
		p.check(c.Database.MaxConns >= c.Database.MinConns,
			"DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)
		p.check(c.Database.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.check(c.Database.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
		p.check(c.Database.HistoryRetention >= 0 && c.Database.HistoryPruneInterval >= 0,
			"HISTORY_RETENTION and HISTORY_PRUNE_INTERVAL must not be negative")
	}

	if c.Rate.Enabled {
		p.check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		p.check(c.Rate.UploadLimit > 0, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	p.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}
	p.check(c.Logging.File == "" || c.Logging.MaxSizeMB > 0, "LOG_MAX_SIZE_MB must be positive when LOG_FILE is set")

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

// String returns the config for logging with secrets masked.
func (c *Config) String() string {
	db := "disabled"
	if c.Database.Enabled() {
		db = fmt.Sprintf("URL: [MASKED], MaxConns: %d, Retention: %s", c.Database.MaxConns, c.Database.HistoryRetention)
	}
	return fmt.Sprintf("Config{Server: {Addr: %q}, Extractor: {URL: %q, Timeout: %s}, "+
		"Upload: {MaxFileSize: %d, MaxConcurrent: %d}, Session: {MaxActive: %d, ResultCacheSize: %d}, "+
		"Database: {%s}, Rate: {Enabled: %v, RequestsPerMinute: %d}, "+
		"Security: {RequireAPIKey: %v, APIKeys: %d configured}, Logging: {Level: %q, Format: %q, File: %q}}",
		c.Server.Addr(), c.Extractor.URL, c.Extractor.Timeout,
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent, c.Session.MaxActive, c.Session.ResultCacheSize,
		db, c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Security.RequireAPIKey, len(c.Security.APIKeys), c.Logging.Level, c.Logging.Format, c.Logging.File)
}
