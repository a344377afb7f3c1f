package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"tubebatch/internal/core/domain"
)

const watchURLTemplate = "https://www.youtube.com/watch?v=%s"

// Fetcher implements ports.VideoFetcher using the local yt-dlp binary.
type Fetcher struct {
	binaryPath string
	timeout    time.Duration
}

// NewFetcher creates a new fetcher. An empty binaryPath looks for yt-dlp.exe in the
// current directory and then falls back to yt-dlp on PATH.
func NewFetcher(binaryPath string) *Fetcher {
	if strings.TrimSpace(binaryPath) == "" {
		binaryPath = "yt-dlp"
		if _, err := os.Stat("yt-dlp.exe"); err == nil {
			binaryPath = ".\\yt-dlp.exe"
		}
	}
	return &Fetcher{
		binaryPath: binaryPath,
		timeout:    2 * time.Minute,
	}
}

type videoInfo struct {
	Title   string        `json:"title"`
	Formats []videoFormat `json:"formats"`
}

type videoFormat struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	URL            string   `json:"url"`
	Height         *int     `json:"height"`
	FPS            *float64 `json:"fps"`
	Filesize       *int64   `json:"filesize"`
	FilesizeApprox *int64   `json:"filesize_approx"`
	VCodec         string   `json:"vcodec"`
	Protocol       string   `json:"protocol"`
}

// directProtocols are the formats served as a single file; manifests (m3u8, dash) are skipped.
var directProtocols = map[string]bool{
	"https": true,
	"http":  true,
}

// Fetch lists the video streams of videoID via yt-dlp -J, routed through the proxy.
func (f *Fetcher) Fetch(ctx context.Context, videoID string, proxy domain.ProxyConfig) ([]domain.Stream, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// -J: dump the info JSON without downloading
	args := []string{"-J", "--no-warnings", "--no-playlist"}
	if proxy.HTTPS != nil {
		args = append(args, "--proxy", proxy.HTTPS.String())
	}
	args = append(args, fmt.Sprintf(watchURLTemplate, videoID))

	cmd := exec.CommandContext(ctx, f.binaryPath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &domain.ProxyError{Err: fmt.Errorf("yt-dlp timed out: %w", ctx.Err())}
		}
		return nil, classifyFailure(videoID, err, stderr.String())
	}

	var info videoInfo
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return toStreams(info), nil
}

func toStreams(info videoInfo) []domain.Stream {
	streams := make([]domain.Stream, 0, len(info.Formats))
	for _, fm := range info.Formats {
		// audio-only and storyboard formats carry no height
		if fm.Height == nil || fm.VCodec == "none" || fm.URL == "" {
			continue
		}
		if !directProtocols[fm.Protocol] {
			continue
		}
		s := domain.Stream{
			Resolution: domain.ResolutionFromHeight(*fm.Height),
			Title:      info.Title,
			URL:        fm.URL,
			Ext:        fm.Ext,
		}
		if fm.FPS != nil {
			s.FPS = int(math.Round(*fm.FPS))
		}
		switch {
		case fm.Filesize != nil:
			s.SizeBytes = *fm.Filesize
		case fm.FilesizeApprox != nil:
			s.SizeBytes = *fm.FilesizeApprox
		}
		streams = append(streams, s)
	}
	return streams
}

var (
	ageHints = []string{
		"confirm your age",
		"age-restricted",
		"age restricted",
		"inappropriate for some users",
	}
	proxyHints = []string{
		"unable to connect to proxy",
		"proxyerror",
		"tunnel connection failed",
		"connection refused",
		"connection reset",
		"timed out",
		"network is unreachable",
		"temporary failure in name resolution",
	}
	notFoundHints = []string{
		"video unavailable",
		"private video",
		"does not exist",
		"has been removed",
	}
)

func classifyFailure(videoID string, runErr error, stderr string) error {
	text := strings.ToLower(stderr)
	switch {
	case containsAny(text, ageHints):
		return &domain.UnsupportedContentError{VideoID: videoID, Reason: "age restricted"}
	case containsAny(text, proxyHints):
		return &domain.ProxyError{Err: fmt.Errorf("yt-dlp failed: %w, stderr: %s", runErr, strings.TrimSpace(stderr))}
	case containsAny(text, notFoundHints):
		return &domain.VideoNotFoundError{VideoID: videoID}
	default:
		return fmt.Errorf("yt-dlp failed: %w, stderr: %s", runErr, strings.TrimSpace(stderr))
	}
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
