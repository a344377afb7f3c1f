package domain

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Resolution is a normalized video resolution label such as "1080p".
type Resolution string

const (
	Resolution360p        Resolution = "360p"
	Resolution480p        Resolution = "480p"
	Resolution720p        Resolution = "720p"
	Resolution1080p       Resolution = "1080p"
	Resolution1440p       Resolution = "1440p"
	Resolution2160p       Resolution = "2160p"
	ResolutionUnsupported Resolution = "unsupported"
)

// ResolutionFromHeight maps a frame height to its label.
// Heights outside the known table map to ResolutionUnsupported.
func ResolutionFromHeight(height int) Resolution {
	switch height {
	case 360:
		return Resolution360p
	case 480:
		return Resolution480p
	case 720:
		return Resolution720p
	case 1080:
		return Resolution1080p
	case 1440:
		return Resolution1440p
	case 2160:
		return Resolution2160p
	default:
		return ResolutionUnsupported
	}
}

// Job represents a single video to download at a specific quality.
type Job struct {
	Index      int        `json:"index"`
	Filename   string     `json:"filename"`
	VideoID    string     `json:"video_id"`
	Resolution Resolution `json:"resolution"`
	FPS        int        `json:"fps"`
}

func (j Job) String() string {
	return fmt.Sprintf("#%d %s (%s %s@%d)", j.Index, j.Filename, j.VideoID, j.Resolution, j.FPS)
}

// ProxyConfig holds the proxy endpoint used for each URL scheme.
// It is built once per run and shared read-only between workers.
type ProxyConfig struct {
	HTTP  *url.URL
	HTTPS *url.URL
}

// NewProxyConfig points both scheme endpoints at http://host:port.
func NewProxyConfig(host string, port int) ProxyConfig {
	endpoint := &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", host, port)}
	https := *endpoint
	return ProxyConfig{HTTP: endpoint, HTTPS: &https}
}

// ProxyFunc returns a function usable as http.Transport.Proxy.
func (p ProxyConfig) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		if req.URL != nil && req.URL.Scheme == "https" {
			return p.HTTPS, nil
		}
		return p.HTTP, nil
	}
}

// Stream is one media variant offered for a video.
type Stream struct {
	Resolution Resolution
	FPS        int
	SizeBytes  int64
	Title      string
	URL        string
	Ext        string
}

// SizeMiB returns the stream size in MiB rounded to two decimals.
func (s Stream) SizeMiB() float64 {
	mib := float64(s.SizeBytes) / 1024 / 1024
	return float64(int64(mib*100+0.5)) / 100
}

// Classification tells the retry policy how to treat a failure.
type Classification int

const (
	ClassNone Classification = iota
	ClassTransient
	ClassFatal
)

func (c Classification) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassFatal:
		return "fatal"
	default:
		return "none"
	}
}

// RetryState is the per-job retry bookkeeping.
type RetryState struct {
	AttemptsRemaining  int
	LastClassification Classification
}

// JobState is a state of the per-job retry machine.
type JobState string

const (
	StatePending    JobState = "pending"
	StateAttempting JobState = "attempting"
	StateRetrying   JobState = "retrying"
	StateSucceeded  JobState = "succeeded"
	StateFailed     JobState = "failed"
)

// IsTerminal reports whether no further transition may follow.
func (s JobState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// JobOutcome is the terminal result of one job.
type JobOutcome struct {
	Job               Job
	Success           bool
	Attempts          int
	AttemptsRemaining int
	State             JobState
	Reason            string
}

// Result is one line of the result artifact.
type Result struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
}

// BatchResult holds the outcome of a complete run.
type BatchResult struct {
	RunID       string
	Results     []Result
	Succeeded   int
	Failed      int
	ProxyOK     bool
	ResultPath  string
	StartedAt   time.Time
	CompletedAt time.Time
}
