package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPhaseTree(t *testing.T) {
	ctx, root := StartRun(context.Background(), "kmerfilter", "run-1")
	_, build := StartPhase(ctx, "build")
	build.SetAttr("kmers", 42)
	build.End()
	_, scan := StartPhase(ctx, "scan")
	scan.End()
	root.End()

	if len(root.Children) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(root.Children))
	}
	if build.RunID != "run-1" {
		t.Errorf("child should inherit run id, got %q", build.RunID)
	}

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, nil)))
	out := buf.String()
	if strings.Count(out, "msg=span") != 3 {
		t.Errorf("expected 3 span lines:\n%s", out)
	}
	if !strings.Contains(out, "kmers=42") {
		t.Errorf("attribute missing:\n%s", out)
	}
}

func TestDetachedPhase(t *testing.T) {
	ctx, s := StartPhase(context.Background(), "orphan")
	if FromContext(ctx) != s || s.RunID != "" {
		t.Error("detached span should be stored without a run id")
	}
}
