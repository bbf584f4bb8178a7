package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultURL            = "http://localhost:8080"
	DefaultInterval       = 10 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogFormat      = "json"

	minInterval = time.Second
)

// Environment variables consulted when the matching flag is not given.
const (
	EnvURL       = "ETCDASH_URL"
	EnvInterval  = "ETCDASH_INTERVAL"
	EnvTimeout   = "ETCDASH_TIMEOUT"
	EnvInsecure  = "ETCDASH_INSECURE"
	EnvCACert    = "ETCDASH_CA_CERT"
	EnvLogFile   = "ETCDASH_LOG_FILE"
	EnvLogFormat = "ETCDASH_LOG_FORMAT"
	EnvDebug     = "ETCDASH_DEBUG"
	EnvConfig    = "ETCDASH_CONFIG"
)

// Config is the resolved runtime configuration.
type Config struct {
	URL            string
	Interval       time.Duration
	RequestTimeout time.Duration
	Insecure       bool
	CACertFile     string
	LogFile        string
	LogFormat      string
	Debug          bool
	Once           bool
	ConfigFile     string

	// Warnings lists config file entries that were ignored.
	Warnings []error
}

// File is the optional YAML configuration file. Empty fields fall through to
// the built-in defaults.
type File struct {
	URL            string `yaml:"url"`
	Interval       string `yaml:"interval"`
	RequestTimeout string `yaml:"requestTimeout"`
	Insecure       *bool  `yaml:"insecure"`
	CACert         string `yaml:"caCert"`
	Log            struct {
		File   string `yaml:"file"`
		Format string `yaml:"format"`
		Debug  *bool  `yaml:"debug"`
	} `yaml:"log"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadFile reads and parses a YAML configuration file at path.
// If path does not exist or is empty, it returns an empty File with no errors.
// If the YAML is malformed, it returns nil with a parse error.
// Invalid entries are cleared and reported, the rest of the file is kept.
func LoadFile(path string) (*File, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, []error{fmt.Errorf("failed to read config file: %w", err)}
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return &File{}, nil
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, []error{fmt.Errorf("failed to parse config YAML: %w", err)}
	}

	var validationErrors []error
	if f.URL != "" {
		if _, err := ParseBaseURL(f.URL); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("url: %w", err))
			f.URL = ""
		}
	}
	if f.Interval != "" {
		if _, err := parseInterval(f.Interval); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("interval: %w", err))
			f.Interval = ""
		}
	}
	if f.RequestTimeout != "" {
		if _, err := parseTimeout(f.RequestTimeout); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("requestTimeout: %w", err))
			f.RequestTimeout = ""
		}
	}
	if f.Log.Format != "" {
		if err := checkLogFormat(f.Log.Format); err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("log.format: %w", err))
			f.Log.Format = ""
		}
	}
	return &f, validationErrors
}

// Load resolves the configuration from command-line args, the environment,
// an optional YAML file and built-in defaults, in that order of precedence.
// The base URL may also be given as a single positional argument.
func Load(args []string) (Config, error) {
	flags := flag.NewFlagSet("etcdash", flag.ContinueOnError)
	flags.String("url", "", "dashboard server base URL (default "+DefaultURL+")")
	flags.String("interval", "", "polling interval, at least 1s (default 10s)")
	flags.String("timeout", "", "per-request timeout for status polls (default 10s)")
	flags.Bool("insecure", false, "skip TLS certificate verification")
	flags.String("ca-cert", "", "PEM bundle used to verify an https dashboard server")
	flags.String("log-file", "", "write logs to this file (default: discard)")
	flags.String("log-format", "", "log format: json or text (default json)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("config", "", "path to YAML config file")
	once := flags.Bool("once", false, "print the cluster status once and exit")
	flags.Usage = func() {
		out := flags.Output()
		fmt.Fprintf(out, "usage: etcdash [flags] [dashboard-url]\n\n")
		fmt.Fprintf(out, "examples:\n")
		fmt.Fprintf(out, "  etcdash http://localhost:8080\n")
		fmt.Fprintf(out, "  etcdash --interval 30s --log-file /tmp/etcdash.log\n")
		fmt.Fprintf(out, "  etcdash --once --url https://etcd-dash.example.com --ca-cert ca.pem\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Reject extra positional arguments. flag.Parse stops at the first
	// non-flag argument, so trailing --flags would also be silently ignored.
	rest := flags.Args()
	if len(rest) > 1 {
		extra := rest[1]
		if len(extra) > 1 && extra[0] == '-' {
			return Config{}, fmt.Errorf("flag %q must be placed before the URL", extra)
		}
		return Config{}, fmt.Errorf("unexpected argument %q", extra)
	}
	if len(rest) == 1 {
		if set["url"] {
			return Config{}, errors.New("URL given both as --url and as an argument")
		}
		if err := flags.Set("url", rest[0]); err != nil {
			return Config{}, err
		}
		set["url"] = true
	}

	cfg := Config{Once: *once}
	r := resolver{flags: flags, set: set}

	cfg.ConfigFile = r.value("config", EnvConfig, "", "")
	file := &File{}
	if cfg.ConfigFile != "" {
		f, errs := LoadFile(cfg.ConfigFile)
		if f == nil {
			return Config{}, errors.Join(errs...)
		}
		file = f
		cfg.Warnings = errs
	}

	var err error
	if cfg.URL, err = ParseBaseURL(r.value("url", EnvURL, file.URL, DefaultURL)); err != nil {
		return Config{}, err
	}
	if cfg.Interval, err = parseInterval(r.value("interval", EnvInterval, file.Interval, DefaultInterval.String())); err != nil {
		return Config{}, fmt.Errorf("invalid interval: %w", err)
	}
	if cfg.RequestTimeout, err = parseTimeout(r.value("timeout", EnvTimeout, file.RequestTimeout, DefaultRequestTimeout.String())); err != nil {
		return Config{}, fmt.Errorf("invalid timeout: %w", err)
	}
	if cfg.Insecure, err = strconv.ParseBool(r.value("insecure", EnvInsecure, boolString(file.Insecure), "false")); err != nil {
		return Config{}, fmt.Errorf("invalid insecure setting: %w", err)
	}
	if cfg.Debug, err = strconv.ParseBool(r.value("debug", EnvDebug, boolString(file.Log.Debug), "false")); err != nil {
		return Config{}, fmt.Errorf("invalid debug setting: %w", err)
	}
	cfg.CACertFile = r.value("ca-cert", EnvCACert, file.CACert, "")
	cfg.LogFile = r.value("log-file", EnvLogFile, file.Log.File, "")
	cfg.LogFormat = strings.ToLower(r.value("log-format", EnvLogFormat, file.Log.Format, DefaultLogFormat))
	if err := checkLogFormat(cfg.LogFormat); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolver picks each setting from the first layer that provides it.
type resolver struct {
	flags *flag.FlagSet
	set   map[string]bool
}

func (r resolver) value(name, envKey, fileValue, def string) string {
	if r.set[name] {
		return r.flags.Lookup(name).Value.String()
	}
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return def
}

// ParseBaseURL validates a dashboard server URL and returns it without a
// trailing slash.
func ParseBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q (must be http or https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid URL %q: host is required", raw)
	}
	if u.User != nil {
		return "", fmt.Errorf("invalid URL %q: credentials are not supported", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid URL %q: query and fragment are not allowed", raw)
	}
	u.ForceQuery = false
	return strings.TrimRight(u.String(), "/"), nil
}

func parseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < minInterval {
		return 0, fmt.Errorf("must be at least %s, got %q", minInterval, s)
	}
	return d, nil
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %q", s)
	}
	return d, nil
}

func boolString(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func checkLogFormat(format string) error {
	switch strings.ToLower(format) {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("unsupported log format %q (must be json or text)", format)
	}
}
