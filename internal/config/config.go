package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tubebatch/internal/adapters/proxy"
)

// Environment variable names. Command-line flags override them.
const (
	EnvJobsFile     = "TUBEBATCH_JOBS"
	EnvOutputDir    = "TUBEBATCH_OUTPUT_DIR"
	EnvResultPath   = "TUBEBATCH_RESULT"
	EnvWorkers      = "TUBEBATCH_WORKERS"
	EnvProxyHost    = "TUBEBATCH_PROXY_HOST"
	EnvProxyPort    = "TUBEBATCH_PROXY_PORT"
	EnvProbe        = "TUBEBATCH_PROBE"
	EnvProbeURL     = "TUBEBATCH_PROBE_URL"
	EnvProbeTimeout = "TUBEBATCH_PROBE_TIMEOUT"
	EnvYtDlpPath    = "TUBEBATCH_YTDLP"
)

const DefaultResultPath = "results.json"

// Config holds the settings for one batch run.
type Config struct {
	JobsFile     string
	OutputDir    string
	ResultPath   string
	Workers      int
	ProxyHost    string
	ProxyPort    int
	Probe        bool
	ProbeURL     string
	ProbeTimeout time.Duration
	YtDlpPath    string
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Parse builds a Config from the environment and then args.
func Parse(args []string, output io.Writer) (Config, error) {
	defaults, err := fromEnv()
	if err != nil {
		return Config{}, err
	}

	cfg := defaults
	fs := flag.NewFlagSet("tubebatch", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.JobsFile, "jobs", defaults.JobsFile, "CSV file with name,yt_id,resolution,fps columns")
	fs.StringVar(&cfg.OutputDir, "out", defaults.OutputDir, "Output directory for videos (default: current directory)")
	fs.StringVar(&cfg.ResultPath, "result", defaults.ResultPath, "Path of the JSON result file")
	fs.IntVar(&cfg.Workers, "workers", defaults.Workers, "Parallel workers (0 = number of CPUs)")
	fs.StringVar(&cfg.ProxyHost, "proxy-host", defaults.ProxyHost, "Proxy host or IP")
	fs.IntVar(&cfg.ProxyPort, "proxy-port", defaults.ProxyPort, "Proxy port")
	fs.BoolVar(&cfg.Probe, "probe", defaults.Probe, "Check the proxy before dispatching jobs")
	fs.StringVar(&cfg.ProbeURL, "probe-url", defaults.ProbeURL, "URL fetched through the proxy by the probe")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", defaults.ProbeTimeout, "Probe request timeout")
	fs.StringVar(&cfg.YtDlpPath, "yt-dlp", defaults.YtDlpPath, "Path to the yt-dlp binary")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required and range-limited settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JobsFile) == "" {
		return fmt.Errorf("jobs file is required (-jobs or %s)", EnvJobsFile)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.ProxyPort <= 0 || c.ProxyPort > 65535 {
		return fmt.Errorf("proxy port out of range: %d", c.ProxyPort)
	}
	return nil
}

func fromEnv() (Config, error) {
	cfg := Config{
		JobsFile:     os.Getenv(EnvJobsFile),
		OutputDir:    os.Getenv(EnvOutputDir),
		ResultPath:   envString(EnvResultPath, DefaultResultPath),
		ProxyHost:    envString(EnvProxyHost, proxy.DefaultHost),
		ProbeURL:     envString(EnvProbeURL, proxy.DefaultProbeURL),
		YtDlpPath:    os.Getenv(EnvYtDlpPath),
		ProbeTimeout: proxy.DefaultTimeout,
		ProxyPort:    proxy.DefaultPort,
		Probe:        true,
	}

	var err error
	if cfg.Workers, err = envInt(EnvWorkers, 0); err != nil {
		return Config{}, err
	}
	if cfg.ProxyPort, err = envInt(EnvProxyPort, proxy.DefaultPort); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(os.Getenv(EnvProbe)); v != "" {
		if cfg.Probe, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvProbe, v, err)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvProbeTimeout)); v != "" {
		if cfg.ProbeTimeout, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvProbeTimeout, v, err)
		}
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
