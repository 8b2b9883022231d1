package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")

	if err := Init("mlkit", "0.0.1", fname); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "GetResourceQueue", "CLIENT")
	span.WithAttributes(map[string]string{"queue": "q-1"})
	span.SetStatusFromHTTPCode(200)
	EndSpan(span, nil)
	_ = ctx

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("no data written to trace file")
	}
}
