package window

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mnemolab/mnemo/internal/observability"
	"github.com/mnemolab/mnemo/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// compressLocked runs one compression pass. Caller holds m.mu.
func (m *Manager) compressLocked(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "window.compress",
		attribute.String("strategy", m.cfg.Strategy.String()))
	defer span.End()

	start := time.Now()
	before := m.tokenCountLocked()

	// Re-score everything so the recency quantiles reflect current positions.
	total := len(m.messages)
	for i := range m.messages {
		m.messages[i].Importance = m.score(m.messages[i], i, total)
	}

	compressible := m.compressibleLocked()

	switch m.cfg.Strategy {
	case StrategyTruncate:
		m.truncateLocked(compressible)
	case StrategySummarize:
		m.summarizeLocked(ctx, compressible)
	case StrategyExtract:
		m.extractLocked(compressible)
	case StrategyHybrid:
		m.hybridLocked(ctx, compressible)
	}

	after := m.tokenCountLocked()
	saved := before - after
	if saved < 0 {
		saved = 0
	}
	m.stats.passes++
	m.stats.processed += int64(before)
	m.stats.saved += int64(saved)

	elapsed := time.Since(start)
	observability.RecordWindowCompression(m.cfg.Strategy.String(), elapsed, saved)
	span.SetAttributes(
		attribute.Int("tokens_before", before),
		attribute.Int("tokens_after", after),
	)

	ctxLogger := tracing.LoggerFromContext(ctx, m.cfg.Logger)
	ctxLogger.Info().
		Str("strategy", m.cfg.Strategy.String()).
		Int("tokens_before", before).
		Int("tokens_after", after).
		Int("messages", len(m.messages)).
		Dur("elapsed", elapsed).
		Msg("Context window compressed")
}

// compressibleLocked returns the indexes open to compression, oldest first.
// Recent messages, system messages (when configured), and anything at or
// above the preserve threshold stay out.
func (m *Manager) compressibleLocked() []int {
	preserveFrom := len(m.messages) - m.cfg.PreserveRecent
	if preserveFrom < 0 {
		preserveFrom = 0
	}

	var compressible []int
	for i, msg := range m.messages {
		if i >= preserveFrom {
			continue
		}
		if m.cfg.PreserveSystem && msg.Role == RoleSystem {
			continue
		}
		if msg.Importance >= *m.cfg.MinImportance {
			continue
		}
		compressible = append(compressible, i)
	}
	return compressible
}

// truncateLocked drops compressible messages oldest-first until the window
// fits the budget.
func (m *Manager) truncateLocked(compressible []int) {
	drop := make(map[int]bool)
	current := m.tokenCountLocked()
	for _, idx := range compressible {
		if current <= m.cfg.MaxTokens {
			break
		}
		drop[idx] = true
		current -= m.messages[idx].Tokens
	}
	m.dropLocked(drop)
}

// summarizeLocked replaces the whole compressible set with summary text.
// On summarizer failure the pass degrades to truncation.
func (m *Manager) summarizeLocked(ctx context.Context, compressible []int) {
	if len(compressible) == 0 {
		return
	}

	batch := make([]Message, 0, len(compressible))
	for _, idx := range compressible {
		batch = append(batch, m.messages[idx])
	}

	text, err := m.summarize(ctx, batch)
	if err != nil {
		observability.RecordSummarizerFailure()
		ctxLogger := tracing.LoggerFromContext(ctx, m.cfg.Logger)
		ctxLogger.Warn().
			Err(err).
			Int("messages", len(batch)).
			Msg("Summarizer failed, truncating instead")
		m.truncateLocked(compressible)
		return
	}

	m.appendSummaryLocked(text)
	drop := make(map[int]bool, len(compressible))
	for _, idx := range compressible {
		drop[idx] = true
	}
	m.dropLocked(drop)
}

// extractLocked rewrites each compressible message down to its key
// sentences, then truncates if the window still does not fit.
func (m *Manager) extractLocked(compressible []int) {
	for _, idx := range compressible {
		m.extractMessageLocked(idx)
	}
	if m.tokenCountLocked() > m.cfg.MaxTokens {
		m.truncateLocked(compressible)
	}
}

// hybridLocked summarizes the older half of the compressible set and
// extracts the newer half. The older half is dropped even when the
// summarizer fails; only its summary text is lost.
func (m *Manager) hybridLocked(ctx context.Context, compressible []int) {
	mid := len(compressible) / 2
	older, newer := compressible[:mid], compressible[mid:]

	// Extraction mutates in place, so run it before the drop below shifts
	// any indexes.
	for _, idx := range newer {
		m.extractMessageLocked(idx)
	}

	if len(older) > 0 {
		batch := make([]Message, 0, len(older))
		for _, idx := range older {
			batch = append(batch, m.messages[idx])
		}

		text, err := m.summarize(ctx, batch)
		if err != nil {
			observability.RecordSummarizerFailure()
			ctxLogger := tracing.LoggerFromContext(ctx, m.cfg.Logger)
			ctxLogger.Warn().
				Err(err).
				Int("messages", len(batch)).
				Msg("Summarizer failed, dropping messages without summary")
		} else {
			m.appendSummaryLocked(text)
		}

		drop := make(map[int]bool, len(older))
		for _, idx := range older {
			drop[idx] = true
		}
		m.dropLocked(drop)
	}

	if m.tokenCountLocked() > m.cfg.MaxTokens {
		m.truncateLocked(m.compressibleLocked())
	}
}

// summarize calls the configured summarizer under its timeout.
func (m *Manager) summarize(ctx context.Context, batch []Message) (string, error) {
	if m.cfg.Summarizer == nil {
		return "", errors.New("no summarizer configured")
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.SummarizerTimeout)
	defer cancel()
	return m.cfg.Summarizer.Summarize(ctx, batch)
}

// extractMessageLocked reduces one message to its key sentences, keeping
// the compression bookkeeping anchored to the first rewrite.
func (m *Manager) extractMessageLocked(idx int) {
	msg := &m.messages[idx]
	extracted := extractKeySentences(msg.Content)
	if len(extracted) >= len(msg.Content) {
		return
	}

	if !msg.Compressed {
		msg.Compressed = true
		msg.OriginalTokens = msg.Tokens
	}
	msg.Content = extracted
	msg.Tokens = estimateTokens(extracted)
	if msg.OriginalTokens > 0 {
		msg.CompressionRatio = float64(msg.Tokens) / float64(msg.OriginalTokens)
	}
}

func (m *Manager) appendSummaryLocked(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if m.summary == "" {
		m.summary = text
	} else {
		m.summary += "\n" + text
	}
	m.summaryTokens = estimateTokens(m.summary)
	m.summaryAt = time.Now().UTC()
}

func (m *Manager) dropLocked(drop map[int]bool) {
	if len(drop) == 0 {
		return
	}
	kept := make([]Message, 0, len(m.messages)-len(drop))
	for i, msg := range m.messages {
		if !drop[i] {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
}

// extractKeySentences keeps the first sentence, the last sentence, and any
// sentence carrying a signal keyword. Content with at most two sentences
// passes through unchanged.
func extractKeySentences(content string) string {
	sentences := splitSentences(content)
	if len(sentences) <= 2 {
		return content
	}

	kept := []string{sentences[0]}
	for _, sentence := range sentences[1 : len(sentences)-1] {
		if containsKeyIndicator(sentence) {
			kept = append(kept, sentence)
		}
	}
	kept = append(kept, sentences[len(sentences)-1])
	return strings.Join(kept, " ")
}

// keyIndicators is wider than the scorer's keyword set: extraction keeps
// any sentence that reads like a decision, requirement, or outcome.
var keyIndicators = []string{"important", "key", "must", "should", "need", "critical", "error", "success"}

func containsKeyIndicator(sentence string) bool {
	lowered := strings.ToLower(sentence)
	for _, indicator := range keyIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}

func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}
	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}
	return sentences
}
