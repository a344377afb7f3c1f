package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tubebatch/internal/adapters/localstorage"
	"tubebatch/internal/core/domain"
)

type stubSource struct {
	jobs []domain.Job
	err  error
}

func (s stubSource) Jobs(ctx context.Context) ([]domain.Job, error) {
	return s.jobs, s.err
}

type stubValidator struct {
	ok    bool
	calls int
}

func (v *stubValidator) Validate(ctx context.Context, host string, port int, probe bool) (bool, domain.ProxyConfig) {
	v.calls++
	return v.ok, domain.NewProxyConfig(host, port)
}

func newTestOrchestrator(src stubSource, v *stubValidator, proc *trackingProcessor) *Orchestrator {
	pool := NewPool(proc, 2, "", discardLogger())
	return NewOrchestrator(src, v, pool, localstorage.NewLocalStorage(), discardLogger())
}

func readReport(t *testing.T, path string) ResultReport {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	var report ResultReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	return report
}

func TestRunBatch_UnreachableProxyDispatchesNothing(t *testing.T) {
	jobs := makeJobs(3)
	proc := newTrackingProcessor(0)
	v := &stubValidator{ok: false}
	path := filepath.Join(t.TempDir(), "results.json")

	res, err := newTestOrchestrator(stubSource{jobs: jobs}, v, proc).RunBatch(context.Background(), BatchOptions{
		ProxyHost: "127.0.0.1", ProxyPort: 7890, Probe: true, ResultPath: path,
	})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if len(proc.visited) != 0 {
		t.Fatalf("no job should be dispatched, got %d", len(proc.visited))
	}
	if res.ProxyOK || res.Succeeded != 0 || res.Failed != 3 || len(res.Results) != 3 {
		t.Fatalf("unexpected batch result %#v", res)
	}

	report := readReport(t, path)
	if report.ProxyOK || report.Total != 3 || report.Failed != 3 {
		t.Fatalf("unexpected report %#v", report)
	}
	for i, r := range report.Results {
		if r.Success || r.Filename != jobs[i].Filename {
			t.Fatalf("unexpected result %d: %#v", i, r)
		}
	}
}

func TestRunBatch_ReportsResultsInJobOrder(t *testing.T) {
	jobs := makeJobs(6)
	proc := newTrackingProcessor(0)
	v := &stubValidator{ok: true}
	path := filepath.Join(t.TempDir(), "out", "results.json")

	res, err := newTestOrchestrator(stubSource{jobs: jobs}, v, proc).RunBatch(context.Background(), BatchOptions{
		ProxyHost: "127.0.0.1", ProxyPort: 7890, Probe: true, ResultPath: path,
	})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if v.calls != 1 {
		t.Fatalf("expected one probe per batch, got %d", v.calls)
	}
	if !res.ProxyOK || res.Succeeded != 3 || res.Failed != 3 || res.RunID == "" {
		t.Fatalf("unexpected batch result %#v", res)
	}
	for i, r := range res.Results {
		if r.Filename != jobs[i].Filename || r.Success != (i%2 == 0) {
			t.Fatalf("unexpected result %d: %#v", i, r)
		}
	}
	if report := readReport(t, path); report.RunID != res.RunID || report.Total != 6 {
		t.Fatalf("unexpected report %#v", report)
	}
}

func TestRunBatch_ToleratesUnsetJobIndexes(t *testing.T) {
	jobs := makeJobs(4)
	for i := range jobs {
		jobs[i].Index = 0
	}

	res, err := newTestOrchestrator(stubSource{jobs: jobs}, &stubValidator{ok: true}, newTrackingProcessor(0)).
		RunBatch(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if len(res.Results) != 4 || res.Succeeded != 4 {
		t.Fatalf("unexpected batch result %#v", res)
	}
	for i, r := range res.Results {
		if r.Filename != jobs[i].Filename {
			t.Fatalf("result %d is %s, want %s", i, r.Filename, jobs[i].Filename)
		}
	}
}

func TestRunBatch_SourceErrorIsReturned(t *testing.T) {
	v := &stubValidator{ok: true}
	_, err := newTestOrchestrator(stubSource{err: errors.New("missing column fps")}, v, newTrackingProcessor(0)).
		RunBatch(context.Background(), BatchOptions{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if v.calls != 0 {
		t.Fatalf("proxy should not be probed when jobs cannot be loaded")
	}
}

func TestRunBatch_SkipsArtifactWithoutPath(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)

	res, err := newTestOrchestrator(stubSource{jobs: makeJobs(1)}, &stubValidator{ok: true}, newTrackingProcessor(0)).
		RunBatch(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if res.Succeeded != 1 {
		t.Fatalf("unexpected batch result %#v", res)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no artifact, found %d entries", len(entries))
	}
}
