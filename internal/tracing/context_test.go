package tracing

import (
	"context"
	"testing"
)

func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()

	if id1 == "" {
		t.Error("NewTraceID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewTraceID returned duplicate IDs")
	}
}

func TestWithTraceID(t *testing.T) {
	ctx := context.Background()
	traceID := "test-trace-id"

	ctx = WithTraceID(ctx, traceID)

	retrieved := GetTraceID(ctx)
	if retrieved != traceID {
		t.Errorf("Expected trace ID %s, got %s", traceID, retrieved)
	}
}

func TestWithAgentID(t *testing.T) {
	ctx := context.Background()
	agentID := "test-agent"

	ctx = WithAgentID(ctx, agentID)

	retrieved := GetAgentID(ctx)
	if retrieved != agentID {
		t.Errorf("Expected agent ID %s, got %s", agentID, retrieved)
	}
}

func TestWithNamespace(t *testing.T) {
	ctx := context.Background()
	namespace := "project-state"

	ctx = WithNamespace(ctx, namespace)

	retrieved := GetNamespace(ctx)
	if retrieved != namespace {
		t.Errorf("Expected namespace %s, got %s", namespace, retrieved)
	}
}

func TestGetTraceIDEmpty(t *testing.T) {
	ctx := context.Background()

	traceID := GetTraceID(ctx)
	if traceID != "" {
		t.Errorf("Expected empty trace ID, got %s", traceID)
	}
}

func TestGetAgentIDEmpty(t *testing.T) {
	ctx := context.Background()

	agentID := GetAgentID(ctx)
	if agentID != "" {
		t.Errorf("Expected empty agent ID, got %s", agentID)
	}
}

func TestGetNamespaceEmpty(t *testing.T) {
	ctx := context.Background()

	namespace := GetNamespace(ctx)
	if namespace != "" {
		t.Errorf("Expected empty namespace, got %s", namespace)
	}
}

func TestFromContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-123")
	ctx = WithAgentID(ctx, "agent-789")
	ctx = WithNamespace(ctx, "ns-abc")
	ctx = WithRequestID(ctx, "req-001")

	tc := FromContext(ctx)

	if tc.TraceID != "trace-123" {
		t.Errorf("Expected trace ID trace-123, got %s", tc.TraceID)
	}
	if tc.AgentID != "agent-789" {
		t.Errorf("Expected agent ID agent-789, got %s", tc.AgentID)
	}
	if tc.Namespace != "ns-abc" {
		t.Errorf("Expected namespace ns-abc, got %s", tc.Namespace)
	}
	if tc.RequestID != "req-001" {
		t.Errorf("Expected request ID req-001, got %s", tc.RequestID)
	}
}

func TestNewContext(t *testing.T) {
	ctx := context.Background()

	tc := &TraceContext{
		TraceID:   "trace-123",
		AgentID:   "agent-789",
		Namespace: "ns-abc",
	}

	ctx = NewContext(ctx, tc)

	if GetTraceID(ctx) != "trace-123" {
		t.Error("Trace ID not set correctly")
	}
	if GetAgentID(ctx) != "agent-789" {
		t.Error("Agent ID not set correctly")
	}
	if GetNamespace(ctx) != "ns-abc" {
		t.Error("Namespace not set correctly")
	}
}

func TestNewContextPartial(t *testing.T) {
	ctx := context.Background()

	tc := &TraceContext{
		TraceID: "trace-123",
		// Other fields empty
	}

	ctx = NewContext(ctx, tc)

	if GetTraceID(ctx) != "trace-123" {
		t.Error("Trace ID not set correctly")
	}
	if GetAgentID(ctx) != "" {
		t.Error("Agent ID should be empty")
	}
	if GetNamespace(ctx) != "" {
		t.Error("Namespace should be empty")
	}
}

func TestNewRequestContext(t *testing.T) {
	ctx := context.Background()

	ctx = NewRequestContext(ctx)

	traceID := GetTraceID(ctx)
	if traceID == "" {
		t.Error("Trace ID not generated")
	}

	// Verify it's a valid UUID format
	if len(traceID) != 36 {
		t.Errorf("Expected UUID format (36 chars), got %d chars", len(traceID))
	}
}

func TestNewAgentContext(t *testing.T) {
	ctx := context.Background()
	agentID := "test-agent"

	ctx = NewAgentContext(ctx, agentID)

	if GetTraceID(ctx) == "" {
		t.Error("Trace ID not generated")
	}

	retrievedAgentID := GetAgentID(ctx)
	if retrievedAgentID != agentID {
		t.Errorf("Expected agent ID %s, got %s", agentID, retrievedAgentID)
	}
}

func TestNewAgentContextKeepsTraceID(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-parent")

	ctx = NewAgentContext(ctx, "child-agent")

	if GetTraceID(ctx) != "trace-parent" {
		t.Error("Trace ID not kept from parent context")
	}
	if GetAgentID(ctx) != "child-agent" {
		t.Error("Agent ID not set correctly")
	}
}
