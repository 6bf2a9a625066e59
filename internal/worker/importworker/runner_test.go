package importworker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/txtalert/platform/internal/importer"
	"github.com/txtalert/platform/pkg/logging"
)

type fakeOrchestrator struct {
	mu       sync.Mutex
	calls    []string
	visitErr error
}

func (f *fakeOrchestrator) ImportVisits(ctx context.Context, source string) (importer.VisitCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "visits:"+source)
	return importer.VisitCounts{}, f.visitErr
}

func (f *fakeOrchestrator) ImportPatients(ctx context.Context, source string) (importer.PatientCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "patients:"+source)
	return importer.PatientCounts{}, nil
}

func (f *fakeOrchestrator) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestRunnerImportsPatientsBeforeVisits(t *testing.T) {
	orch := &fakeOrchestrator{}
	runner := NewRunner(orch, []string{"wrhi", "annex"}, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner.runOnce(ctx)

	// Cancelled context means nothing runs.
	if got := orch.snapshot(); len(got) != 0 {
		t.Fatalf("expected no imports on cancelled context, got %v", got)
	}

	runner.runOnce(context.Background())
	want := []string{"patients:wrhi", "visits:wrhi", "patients:annex", "visits:annex"}
	got := orch.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

type fakeSheetImporter struct {
	mu    sync.Mutex
	calls []string
	spans []time.Duration
	err   error
}

func (f *fakeSheetImporter) Import(ctx context.Context, docName string, start, until time.Time) (importer.VisitCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, docName)
	f.spans = append(f.spans, until.Sub(start))
	return importer.VisitCounts{}, f.err
}

func TestRunnerImportsWorksheetsAfterSources(t *testing.T) {
	orch := &fakeOrchestrator{}
	sheets := &fakeSheetImporter{}
	runner := NewRunner(orch, []string{"wrhi"}, logging.Default()).
		WithWorksheets([]WorksheetImport{
			{Doc: "Soweto Clinic", Importer: sheets},
			{Doc: "Annex", Importer: sheets},
		})
	runner.now = func() time.Time { return time.Date(2009, 3, 15, 12, 0, 0, 0, time.UTC) }

	runner.runOnce(context.Background())

	if got := orch.snapshot(); len(got) != 2 {
		t.Fatalf("expected API source imported, got %v", got)
	}
	if len(sheets.calls) != 2 || sheets.calls[0] != "Soweto Clinic" || sheets.calls[1] != "Annex" {
		t.Fatalf("expected both documents imported in order, got %v", sheets.calls)
	}
	// One month back to one month ahead of the tick.
	want := time.Date(2009, 4, 15, 12, 0, 0, 0, time.UTC).Sub(time.Date(2009, 2, 15, 12, 0, 0, 0, time.UTC))
	if sheets.spans[0] != want {
		t.Fatalf("expected a two-month window, got %v", sheets.spans[0])
	}
}

func TestRunnerContinuesAfterWorksheetFailure(t *testing.T) {
	failing := &fakeSheetImporter{err: errors.New("doc unavailable")}
	ok := &fakeSheetImporter{}
	runner := NewRunner(&fakeOrchestrator{}, nil, logging.Default()).
		WithWorksheets([]WorksheetImport{
			{Doc: "Broken", Importer: failing},
			{Doc: "Healthy", Importer: ok},
		})

	runner.runOnce(context.Background())

	if len(ok.calls) != 1 {
		t.Fatalf("expected the healthy document imported, got %v", ok.calls)
	}
}

func TestRunnerContinuesAfterSourceFailure(t *testing.T) {
	orch := &fakeOrchestrator{visitErr: errors.New("source down")}
	runner := NewRunner(orch, []string{"wrhi", "annex"}, logging.Default())

	runner.runOnce(context.Background())

	got := orch.snapshot()
	if len(got) != 4 {
		t.Fatalf("expected both sources attempted, got %v", got)
	}
}

func TestRunnerStopsOnContextCancel(t *testing.T) {
	orch := &fakeOrchestrator{}
	runner := NewRunner(orch, []string{"wrhi"}, logging.Default()).WithInterval(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}

	if len(orch.snapshot()) == 0 {
		t.Fatal("expected at least one import tick")
	}
}
