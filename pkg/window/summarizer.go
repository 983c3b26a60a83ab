package window

import "context"

// Summarizer condenses a batch of messages into one piece of text. The
// manager bounds each call with the configured summarizer timeout.
type Summarizer interface {
	Summarize(ctx context.Context, messages []Message) (string, error)
}

// SummarizerFunc adapts a function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, messages []Message) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}
