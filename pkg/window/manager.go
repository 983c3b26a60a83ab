package window

import (
	"context"
	"sync"
	"time"

	"github.com/mnemolab/mnemo/internal/observability"
	"github.com/mnemolab/mnemo/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "mnemo.window"

// Manager holds the live context window and compresses it to stay within
// the configured token budget.
type Manager struct {
	mu            sync.Mutex
	cfg           Config
	messages      []Message
	summary       string
	summaryTokens int
	summaryAt     time.Time
	stats         counters
}

type counters struct {
	added     int64
	passes    int64
	processed int64
	saved     int64
}

// New creates a Manager from cfg.
func New(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	observability.EnsureRegistered()
	return &Manager{cfg: cfg}, nil
}

// Add scores and appends msg, then runs a compression pass if the token
// budget is exceeded. A summarizer failure inside the pass never fails
// the call.
func (m *Manager) Add(ctx context.Context, msg Message) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "window.add",
		attribute.String("role", string(msg.Role)))
	defer span.End()

	if err := msg.Role.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid role")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msg.Tokens = estimateTokens(msg.Content)
	msg.Importance = m.score(msg, len(m.messages), len(m.messages)+1)

	m.messages = append(m.messages, msg)
	m.stats.added++

	if m.cfg.Strategy != StrategyNone && m.tokenCountLocked() > m.cfg.MaxTokens {
		m.compressLocked(ctx)
	}

	observability.SetWindowUsage(len(m.messages), m.tokenCountLocked())
	ctxLogger := tracing.LoggerFromContext(ctx, m.cfg.Logger)
	ctxLogger.Debug().
		Str("role", string(msg.Role)).
		Int("tokens", msg.Tokens).
		Str("importance", msg.Importance.String()).
		Msg("Message added")
	return nil
}

// AddMessage builds a Message from role and content and adds it.
func (m *Manager) AddMessage(ctx context.Context, role Role, content string) error {
	return m.Add(ctx, Message{Role: role, Content: content})
}

// Messages returns a snapshot of the window in insertion order. When a
// history summary has accumulated it is prepended as a synthetic system
// message whose tokens count toward the budget.
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, 0, len(m.messages)+1)
	if m.summary != "" {
		out = append(out, Message{
			Role:       RoleSystem,
			Content:    m.summary,
			Timestamp:  m.summaryAt,
			Tokens:     m.summaryTokens,
			Importance: ImportanceCritical,
			Metadata:   map[string]interface{}{"summary": true},
		})
	}
	return append(out, m.messages...)
}

// Stats returns cumulative counters for the window.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		MessagesAdded:       m.stats.added,
		CompressionPasses:   m.stats.passes,
		TokensProcessed:     m.stats.processed,
		TokensSaved:         m.stats.saved,
		AvgCompressionRatio: 1.0,
	}
	if m.stats.processed > 0 {
		stats.AvgCompressionRatio = float64(m.stats.processed-m.stats.saved) / float64(m.stats.processed)
	}
	return stats
}

// TokenCount returns the estimated tokens held by the window, including
// the accumulated summary.
func (m *Manager) TokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCountLocked()
}

// Len returns the live message count, excluding the synthetic summary.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Clear drops all messages and the accumulated summary. Stats survive.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
	observability.SetWindowUsage(0, 0)
	m.cfg.Logger.Debug().Msg("Context window cleared")
}

// Reset clears the window and zeroes the stats counters.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
	m.stats = counters{}
	observability.SetWindowUsage(0, 0)
	m.cfg.Logger.Debug().Msg("Context window reset")
}

// Reconfigure validates cfg, swaps the full configuration, and compresses
// if the window no longer fits the new budget.
func (m *Manager) Reconfigure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	ctx, span := tracing.StartSpan(context.Background(), tracerName, "window.reconfigure",
		attribute.String("strategy", cfg.Strategy.String()))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg

	if m.cfg.Strategy != StrategyNone && m.tokenCountLocked() > m.cfg.MaxTokens {
		m.compressLocked(ctx)
	}
	observability.SetWindowUsage(len(m.messages), m.tokenCountLocked())
	return nil
}

func (m *Manager) clearLocked() {
	m.messages = nil
	m.summary = ""
	m.summaryTokens = 0
	m.summaryAt = time.Time{}
}

func (m *Manager) tokenCountLocked() int {
	total := m.summaryTokens
	for _, msg := range m.messages {
		total += msg.Tokens
	}
	return total
}

func (m *Manager) score(msg Message, index, total int) Importance {
	if m.cfg.Scorer != nil {
		return m.cfg.Scorer(msg, index, total)
	}
	return defaultScorer(msg, index, total)
}
