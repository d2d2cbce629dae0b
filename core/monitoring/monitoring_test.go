package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordMonitor struct {
	errs    []error
	flushes int
}

func (r *recordMonitor) CaptureException(err error, _ map[string]string) { r.errs = append(r.errs, err) }
func (r *recordMonitor) Flush(time.Duration)                             { r.flushes++ }

func TestInitAndCapture(t *testing.T) {
	rec := &recordMonitor{}
	Init(rec)
	defer Init(nil)

	CaptureException(errors.New("boom"), nil)
	CaptureException(nil, nil)
	Flush(time.Second)
	if len(rec.errs) != 1 || rec.flushes != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}

	Init(nil)
	CaptureException(errors.New("dropped"), nil)
	if len(rec.errs) != 1 {
		t.Fatalf("nil monitor should restore the no-op default")
	}
}
