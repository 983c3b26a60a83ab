package window

import "strings"

// Scorer assigns an importance to a message given its position in the
// window. index counts from the oldest message; total is the live count.
type Scorer func(msg Message, index, total int) Importance

// signalKeywords mark content that resists compression regardless of age.
var signalKeywords = []string{"important", "critical", "error"}

// defaultScorer implements the built-in heuristic: system messages are
// critical, keyword hits are high, everything else decays by recency.
func defaultScorer(msg Message, index, total int) Importance {
	if msg.Role == RoleSystem {
		return ImportanceCritical
	}

	content := strings.ToLower(msg.Content)
	for _, keyword := range signalKeywords {
		if strings.Contains(content, keyword) {
			return ImportanceHigh
		}
	}

	if total <= 0 {
		return ImportanceLow
	}

	// Newest 20% of positions score high, the next 30% medium.
	position := float64(index+1) / float64(total)
	switch {
	case position > 0.8:
		return ImportanceHigh
	case position > 0.5:
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}
