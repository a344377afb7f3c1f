package proxy

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"tubebatch/internal/core/domain"
)

const (
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 7890
	DefaultProbeURL = "https://www.google.com"
	DefaultTimeout  = 10 * time.Second
)

// Validator implements ports.ProxyValidator with a single HTTP GET probe.
type Validator struct {
	probeURL string
	timeout  time.Duration
	logger   *log.Logger
}

// NewValidator creates a Validator. Empty probeURL and zero timeout use the defaults.
func NewValidator(probeURL string, timeout time.Duration, logger *log.Logger) *Validator {
	if strings.TrimSpace(probeURL) == "" {
		probeURL = DefaultProbeURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Validator{probeURL: probeURL, timeout: timeout, logger: logger}
}

// Validate builds the proxy config and, when probe is set, checks it can reach the probe URL.
func (v *Validator) Validate(ctx context.Context, host string, port int, probe bool) (bool, domain.ProxyConfig) {
	if strings.TrimSpace(host) == "" {
		host = DefaultHost
	}
	if port <= 0 {
		port = DefaultPort
	}
	cfg := domain.NewProxyConfig(host, port)
	if !probe {
		return true, cfg
	}

	client := &http.Client{
		Timeout:   v.timeout,
		Transport: &http.Transport{Proxy: cfg.ProxyFunc()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.probeURL, nil)
	if err != nil {
		v.logf("proxy probe: failed to create request: %v", err)
		return false, cfg
	}
	resp, err := client.Do(req)
	if err != nil {
		v.logf("proxy probe via %s failed: %v", cfg.HTTP, err)
		return false, cfg
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logf("proxy probe via %s: unexpected status code: %d", cfg.HTTP, resp.StatusCode)
		return false, cfg
	}
	return true, cfg
}

func (v *Validator) logf(format string, args ...any) {
	if v.logger != nil {
		v.logger.Printf(format, args...)
	}
}
