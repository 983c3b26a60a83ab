package window

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const defaultSummarizerTimeout = 30 * time.Second

// Strategy selects how the window reclaims tokens when over budget.
type Strategy string

const (
	// StrategyNone never compresses; the budget is advisory.
	StrategyNone Strategy = "none"
	// StrategyTruncate drops compressible messages oldest-first.
	StrategyTruncate Strategy = "truncate"
	// StrategySummarize replaces compressible messages with a summary.
	StrategySummarize Strategy = "summarize"
	// StrategyExtract rewrites compressible messages down to key sentences.
	StrategyExtract Strategy = "extract"
	// StrategyHybrid summarizes the older half and extracts the newer half.
	StrategyHybrid Strategy = "hybrid"
)

// Validate rejects strategies outside the known set.
func (s Strategy) Validate() error {
	switch s {
	case StrategyNone, StrategyTruncate, StrategySummarize, StrategyExtract, StrategyHybrid:
		return nil
	default:
		return fmt.Errorf("unknown strategy: %q", string(s))
	}
}

func (s Strategy) String() string {
	return string(s)
}

// Config configures a Manager.
type Config struct {
	// MaxTokens is the token budget. Required.
	MaxTokens int
	// PreserveRecent keeps the newest N messages out of compression.
	PreserveRecent int
	// PreserveSystem keeps system messages out of compression.
	PreserveSystem bool
	// MinImportance preserves messages at or above this importance.
	// Defaults to high.
	MinImportance *Importance
	// Strategy selects the compression behavior. Defaults to none.
	Strategy Strategy
	// Scorer overrides the default importance heuristic.
	Scorer Scorer
	// Summarizer condenses messages for the summarize and hybrid strategies.
	Summarizer Summarizer
	// SummarizerTimeout bounds one summarizer call. Defaults to 30 seconds.
	SummarizerTimeout time.Duration
	// Logger receives manager logs.
	Logger zerolog.Logger
}

func (c *Config) validate() error {
	if c.MaxTokens <= 0 {
		return errors.New("max tokens must be positive")
	}
	if c.PreserveRecent < 0 {
		return errors.New("preserve recent cannot be negative")
	}
	if c.Strategy == "" {
		c.Strategy = StrategyNone
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if c.MinImportance == nil {
		min := ImportanceHigh
		c.MinImportance = &min
	}
	if c.SummarizerTimeout <= 0 {
		c.SummarizerTimeout = defaultSummarizerTimeout
	}
	return nil
}

// Stats reports cumulative window activity. Counters never decrease.
type Stats struct {
	MessagesAdded     int64 `json:"messages_added"`
	CompressionPasses int64 `json:"compression_passes"`
	TokensProcessed   int64 `json:"tokens_processed"`
	TokensSaved       int64 `json:"tokens_saved"`
	// AvgCompressionRatio is (processed - saved) / processed, or 1 when
	// nothing has been processed yet.
	AvgCompressionRatio float64 `json:"avg_compression_ratio"`
}
