package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/imagereader/imagereader-mcp/infrastructure/security/audit"
)

type failingTrail struct{ err error }

func (f failingTrail) Log(context.Context, audit.Event) error { return nil }

func (f failingTrail) Close() error { return f.err }

type recordingShutdown struct {
	called bool
	err    error
}

func (r *recordingShutdown) Shutdown(context.Context) error {
	r.called = true
	return r.err
}

func TestRuntime_CloseRunsEveryStep(t *testing.T) {
	t.Parallel()

	auditErr := errors.New("disk full")
	flushErr := errors.New("collector unreachable")

	tests := []struct {
		name      string
		auditErr  error
		flushErr  error
		wantErrs  []error
		wantClean bool
	}{
		{"both succeed", nil, nil, nil, true},
		{"audit fails", auditErr, nil, []error{auditErr}, false},
		{"tracing fails", nil, flushErr, []error{flushErr}, false},
		{"both fail", auditErr, flushErr, []error{auditErr, flushErr}, false},
		{"cancelled flush is ignored", nil, context.Canceled, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tracing := &recordingShutdown{err: tt.flushErr}
			rt := &runtime{audit: failingTrail{err: tt.auditErr}, tracing: tracing}

			err := rt.close()
			if !tracing.called {
				t.Error("tracing was not shut down")
			}
			if tt.wantClean != (err == nil) {
				t.Fatalf("close() error = %v, want nil: %v", err, tt.wantClean)
			}
			for _, want := range tt.wantErrs {
				if !errors.Is(err, want) {
					t.Errorf("close() error = %v, want it to wrap %v", err, want)
				}
			}
		})
	}
}

func TestRuntime_CloseWithoutSinks(t *testing.T) {
	t.Parallel()

	if err := (&runtime{}).close(); err != nil {
		t.Errorf("close() error = %v", err)
	}
}
