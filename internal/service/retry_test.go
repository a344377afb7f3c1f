package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"tubebatch/internal/core/domain"
)

var testJob = domain.Job{Index: 0, Filename: "match_01", VideoID: "vid", Resolution: domain.Resolution720p, FPS: 30}

func runScript(t *testing.T, script ...attemptResult) (domain.JobOutcome, *scriptedRunner, string) {
	t.Helper()
	var buf bytes.Buffer
	runner := &scriptedRunner{script: script}
	c := NewRetryController(runner, 0, log.New(&buf, "", 0))
	out := c.Run(context.Background(), testJob, domain.ProxyConfig{}, t.TempDir())
	return out, runner, buf.String()
}

func TestRetry_PersistentProxyErrorExhaustsThreeAttempts(t *testing.T) {
	out, runner, logs := runScript(t, attemptResult{err: &domain.ProxyError{Err: errors.New("refused")}})

	if runner.calls != 3 || out.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got calls=%d attempts=%d", runner.calls, out.Attempts)
	}
	if out.Success || out.State != domain.StateFailed || out.Reason != "proxy_error" {
		t.Fatalf("unexpected outcome: %#v", out)
	}
	if out.AttemptsRemaining != 0 {
		t.Fatalf("expected no attempts remaining, got %d", out.AttemptsRemaining)
	}
	if strings.Count(logs, "will retry later") != 2 {
		t.Fatalf("expected two retry lines, logs:\n%s", logs)
	}
	for _, line := range []string{"Attempt 1/3", "Attempt 2/3", "Attempt 3/3"} {
		if !strings.Contains(logs, line) {
			t.Fatalf("missing %q line, logs:\n%s", line, logs)
		}
	}
}

func TestRetry_VideoNotFoundFailsAfterOneAttempt(t *testing.T) {
	out, runner, logs := runScript(t,
		attemptResult{err: &domain.VideoNotFoundError{VideoID: "vid"}},
		attemptResult{ok: true},
	)

	if runner.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", runner.calls)
	}
	if out.Success || out.State != domain.StateFailed || out.Reason != "video_not_found" || out.AttemptsRemaining != 0 {
		t.Fatalf("unexpected outcome: %#v", out)
	}
	if !strings.Contains(logs, "video not found") {
		t.Fatalf("missing not-found status line, logs:\n%s", logs)
	}
}

func TestRetry_SucceedsOnSecondAttempt(t *testing.T) {
	out, runner, logs := runScript(t,
		attemptResult{err: &domain.ProxyError{}},
		attemptResult{ok: true},
	)

	if runner.calls != 2 || out.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", runner.calls)
	}
	if !out.Success || out.State != domain.StateSucceeded {
		t.Fatalf("unexpected outcome: %#v", out)
	}
	if out.AttemptsRemaining != 1 {
		t.Fatalf("expected 1 attempt left unused, got %d", out.AttemptsRemaining)
	}
	if !strings.Contains(logs, "proxy error") || !strings.Contains(logs, "Success") {
		t.Fatalf("missing status lines, logs:\n%s", logs)
	}
}

func TestRetry_UnsupportedContentFailsWithoutRetry(t *testing.T) {
	out, runner, _ := runScript(t, attemptResult{ok: false})

	if runner.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", runner.calls)
	}
	if out.Success || out.State != domain.StateFailed || out.Reason != "unsupported_content" {
		t.Fatalf("unexpected outcome: %#v", out)
	}
}

func TestRetry_FilesystemErrorIsFatal(t *testing.T) {
	fsErr := &domain.FilesystemError{Op: "create video file", Path: "/x", Err: errors.New("read-only")}
	out, runner, _ := runScript(t, attemptResult{err: fsErr}, attemptResult{ok: true})

	if runner.calls != 1 || out.Success || out.Reason != "filesystem_error" {
		t.Fatalf("unexpected outcome after %d calls: %#v", runner.calls, out)
	}
}

func TestRetry_WrappedProxyErrorIsTransient(t *testing.T) {
	wrapped := errors.Join(errors.New("transfer failed"), &domain.ProxyError{})
	out, runner, _ := runScript(t, attemptResult{err: wrapped}, attemptResult{ok: true})

	if runner.calls != 2 || !out.Success {
		t.Fatalf("wrapped proxy error should be retried: calls=%d outcome=%#v", runner.calls, out)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]domain.JobState{
		{domain.StatePending, domain.StateAttempting},
		{domain.StateAttempting, domain.StateSucceeded},
		{domain.StateAttempting, domain.StateRetrying},
		{domain.StateAttempting, domain.StateFailed},
		{domain.StateRetrying, domain.StateAttempting},
	}
	for _, tc := range allowed {
		if !canTransition(tc[0], tc[1]) {
			t.Fatalf("expected %q -> %q to be allowed", tc[0], tc[1])
		}
	}

	rejected := [][2]domain.JobState{
		{domain.StatePending, domain.StateSucceeded},
		{domain.StateSucceeded, domain.StateAttempting},
		{domain.StateFailed, domain.StateRetrying},
		{domain.StateRetrying, domain.StateSucceeded},
	}
	for _, tc := range rejected {
		if canTransition(tc[0], tc[1]) {
			t.Fatalf("expected %q -> %q to be rejected", tc[0], tc[1])
		}
	}
}
