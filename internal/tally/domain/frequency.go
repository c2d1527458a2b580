package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frequency is how often an expense recurs. The integer values are the
// storage encoding and must never change; the API only ever sees the tag.
type Frequency int

const (
	FrequencyOneTime Frequency = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
	FrequencyYearly
)

var ErrUnknownFrequency = errors.New("domain: unknown frequency")

var frequencyTags = [...]string{
	FrequencyOneTime: "OneTime",
	FrequencyDaily:   "Daily",
	FrequencyWeekly:  "Weekly",
	FrequencyMonthly: "Monthly",
	FrequencyYearly:  "Yearly",
}

// Frequencies returns every frequency in declaration order.
func Frequencies() []Frequency {
	out := make([]Frequency, len(frequencyTags))
	for i := range frequencyTags {
		out[i] = Frequency(i)
	}
	return out
}

// FrequencyTags returns the symbolic tags in declaration order.
func FrequencyTags() []string {
	out := make([]string, len(frequencyTags))
	copy(out, frequencyTags[:])
	return out
}

// ParseFrequency maps a symbolic tag back to its value. Matching is exact.
func ParseFrequency(tag string) (Frequency, error) {
	for i, t := range frequencyTags {
		if t == tag {
			return Frequency(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFrequency, tag)
}

// FrequencyFromStorage validates an integer read back from the database.
func FrequencyFromStorage(v int64) (Frequency, error) {
	if v < 0 || v >= int64(len(frequencyTags)) {
		return 0, fmt.Errorf("%w: stored value %d", ErrUnknownFrequency, v)
	}
	return Frequency(v), nil
}

func (f Frequency) Valid() bool { return f >= 0 && int(f) < len(frequencyTags) }

func (f Frequency) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
	return frequencyTags[f]
}

// StorageValue is the integer persisted in the frequency column.
func (f Frequency) StorageValue() int64 { return int64(f) }

func (f Frequency) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFrequency, int(f))
	}
	return json.Marshal(frequencyTags[f])
}

func (f *Frequency) UnmarshalJSON(b []byte) error {
	var tag string
	if err := json.Unmarshal(b, &tag); err != nil {
		return fmt.Errorf("%w: frequency must be a string tag", ErrUnknownFrequency)
	}
	parsed, err := ParseFrequency(tag)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
