package window

import "fmt"

// Importance ranks how strongly a message resists compression. Higher values
// compare greater, so thresholds are plain integer comparisons.
type Importance int

const (
	ImportanceLow Importance = iota
	ImportanceMedium
	ImportanceHigh
	ImportanceCritical
)

var importanceNames = map[Importance]string{
	ImportanceLow:      "low",
	ImportanceMedium:   "medium",
	ImportanceHigh:     "high",
	ImportanceCritical: "critical",
}

func (i Importance) String() string {
	if name, ok := importanceNames[i]; ok {
		return name
	}
	return fmt.Sprintf("importance(%d)", int(i))
}

// ParseImportance converts a string form back to an Importance. Unknown
// forms are rejected.
func ParseImportance(s string) (Importance, error) {
	for imp, name := range importanceNames {
		if name == s {
			return imp, nil
		}
	}
	return ImportanceLow, fmt.Errorf("unknown importance: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (i Importance) MarshalText() ([]byte, error) {
	name, ok := importanceNames[i]
	if !ok {
		return nil, fmt.Errorf("unknown importance: %d", int(i))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Importance) UnmarshalText(text []byte) error {
	parsed, err := ParseImportance(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
