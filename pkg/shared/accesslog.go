package shared

import "time"

// AccessLogEntry records one data-plane attempt, allowed or denied.
type AccessLogEntry struct {
	AgentID   string    `json:"agent_id"`
	Action    Action    `json:"action"`
	Namespace string    `json:"namespace"`
	Key       string    `json:"key,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// AccessLogFilter narrows AccessLog results. Zero fields match everything.
type AccessLogFilter struct {
	AgentID   string
	Namespace string
	Action    Action
	// Limit returns only the most recent matches, newest first.
	Limit int
}

// accessLog is a fixed-capacity ring: once full, the oldest entry is
// overwritten by the next add.
type accessLog struct {
	entries []AccessLogEntry
	next    int
	full    bool
}

func newAccessLog(capacity int) *accessLog {
	return &accessLog{entries: make([]AccessLogEntry, capacity)}
}

func (l *accessLog) add(entry AccessLogEntry) {
	if len(l.entries) == 0 {
		return
	}
	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// snapshot returns the recorded entries oldest first.
func (l *accessLog) snapshot() []AccessLogEntry {
	if !l.full {
		return append([]AccessLogEntry(nil), l.entries[:l.next]...)
	}
	out := make([]AccessLogEntry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	return append(out, l.entries[:l.next]...)
}

// query returns matches in chronological order; with a limit, the most
// recent matches come back newest first.
func (l *accessLog) query(filter AccessLogFilter) []AccessLogEntry {
	var matches []AccessLogEntry
	for _, entry := range l.snapshot() {
		if filter.AgentID != "" && entry.AgentID != filter.AgentID {
			continue
		}
		if filter.Namespace != "" && entry.Namespace != filter.Namespace {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		matches = append(matches, entry)
	}

	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[len(matches)-filter.Limit:]
	}
	if filter.Limit > 0 {
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	}
	return matches
}

func (l *accessLog) reset() {
	for i := range l.entries {
		l.entries[i] = AccessLogEntry{}
	}
	l.next = 0
	l.full = false
}
