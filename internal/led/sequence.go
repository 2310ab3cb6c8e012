package led

import (
	"errors"
	"fmt"
	"strings"
)

// Sequence is a multi-LED animation run by a Group.
type Sequence uint8

const (
	SequenceNone Sequence = iota
	SequenceChase
	SequenceWave
	SequenceAlternating
)

// ErrUnknownSequence is returned when a sequence name cannot be parsed.
var ErrUnknownSequence = errors.New("unknown LED sequence")

var sequenceNames = [...]string{
	SequenceNone:        "none",
	SequenceChase:       "chase",
	SequenceWave:        "wave",
	SequenceAlternating: "alternating",
}

func (s Sequence) String() string {
	if int(s) < len(sequenceNames) {
		return sequenceNames[s]
	}
	return fmt.Sprintf("sequence(%d)", uint8(s))
}

// ParseSequence resolves a sequence name; "" means SequenceNone.
func ParseSequence(name string) (Sequence, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return SequenceNone, nil
	}
	for s, sn := range sequenceNames {
		if sn == n {
			return Sequence(s), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSequence, name)
}

// SequenceNames returns the names of all sequences.
func SequenceNames() []string {
	return append([]string(nil), sequenceNames[:]...)
}
