package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestPropagateToLogger(t *testing.T) {
	// Create context with tracing
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-123")
	ctx = WithAgentID(ctx, "agent-789")
	ctx = WithNamespace(ctx, "ns-abc")

	// Create logger
	var buf bytes.Buffer
	baseLogger := zerolog.New(&buf)

	// Propagate to logger
	logger := PropagateToLogger(ctx, baseLogger)

	// Log a message
	logger.Info().Msg("test message")

	// Verify tracing fields are in log output
	output := buf.String()

	if !contains(output, "trace-123") {
		t.Error("Trace ID not in log output")
	}
	if !contains(output, "agent-789") {
		t.Error("Agent ID not in log output")
	}
	if !contains(output, "ns-abc") {
		t.Error("Namespace not in log output")
	}
}

func TestLoggerFromContext(t *testing.T) {
	// Create context with tracing
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-xyz")

	// Create logger
	var buf bytes.Buffer
	baseLogger := zerolog.New(&buf)

	// Get logger from context
	logger := LoggerFromContext(ctx, baseLogger)

	// Log a message
	logger.Info().Msg("test")

	// Verify trace ID is in output
	output := buf.String()
	if !contains(output, "trace-xyz") {
		t.Error("Trace ID not in log output")
	}
}

func TestMergeContext(t *testing.T) {
	// Create source context with tracing
	sourceCtx := context.Background()
	sourceCtx = WithTraceID(sourceCtx, "trace-source")
	sourceCtx = WithAgentID(sourceCtx, "agent-source")

	// Create target context (empty)
	targetCtx := context.Background()

	// Merge contexts
	mergedCtx := MergeContext(targetCtx, sourceCtx)

	// Verify tracing info is merged
	if GetTraceID(mergedCtx) != "trace-source" {
		t.Error("Trace ID not merged")
	}
	if GetAgentID(mergedCtx) != "agent-source" {
		t.Error("Agent ID not merged")
	}
}

func TestMergeContextNoOverwrite(t *testing.T) {
	// Create source context
	sourceCtx := context.Background()
	sourceCtx = WithTraceID(sourceCtx, "trace-source")

	// Create target context with existing trace ID
	targetCtx := context.Background()
	targetCtx = WithTraceID(targetCtx, "trace-target")

	// Merge contexts
	mergedCtx := MergeContext(targetCtx, sourceCtx)

	// Verify target trace ID is not overwritten
	if GetTraceID(mergedCtx) != "trace-target" {
		t.Error("Trace ID should not be overwritten")
	}
}

func TestCloneContext(t *testing.T) {
	// Create original context
	originalCtx := context.Background()
	originalCtx = WithTraceID(originalCtx, "trace-123")
	originalCtx = WithAgentID(originalCtx, "agent-789")
	originalCtx = WithNamespace(originalCtx, "ns-abc")

	// Clone context
	clonedCtx := CloneContext(originalCtx)

	// Verify tracing info is cloned
	if GetTraceID(clonedCtx) != "trace-123" {
		t.Error("Trace ID not cloned")
	}
	if GetAgentID(clonedCtx) != "agent-789" {
		t.Error("Agent ID not cloned")
	}
	if GetNamespace(clonedCtx) != "ns-abc" {
		t.Error("Namespace not cloned")
	}
}

// Helper function to check if string contains substring
func contains(s, substr string) bool {
	return bytes.Contains([]byte(s), []byte(substr))
}
