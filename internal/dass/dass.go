// Package dass scores the depression, anxiety and stress scales of the
// DASS-21 and DASS-42 questionnaires.
package dass

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Scale string

const (
	Depression Scale = "depression"
	Anxiety    Scale = "anxiety"
	Stress     Scale = "stress"
)

// Scales lists the scales in the order a questionnaire run records them.
var Scales = []Scale{Depression, Anxiety, Stress}

type Severity string

const (
	Normal          Severity = "Normal"
	Mild            Severity = "Mild"
	Moderate        Severity = "Moderate"
	Severe          Severity = "Severe"
	ExtremelySevere Severity = "Extremely Severe"
	Incomplete      Severity = "Incomplete"
)

var bands = [...]Severity{Normal, Mild, Moderate, Severe, ExtremelySevere}

// thresholds holds the exclusive upper bound of the Normal, Mild, Moderate and
// Severe bands. Anything at or above the last value is Extremely Severe.
var thresholds = map[Scale][4]int{
	Depression: {9, 13, 20, 27},
	Anxiety:    {7, 9, 14, 19},
	Stress:     {14, 18, 25, 33},
}

var (
	ErrNoAnswers     = errors.New("no answers provided")
	ErrInvalidAnswer = errors.New("invalid answer")
)

// Classify maps a score to its severity band. Negative scores mean the scale
// has not been answered yet and classify as Incomplete.
func Classify(scale Scale, score int) Severity {
	if score < 0 {
		return Incomplete
	}
	limits, ok := thresholds[scale]
	if !ok {
		return Incomplete
	}
	for i, limit := range limits {
		if score < limit {
			return bands[i]
		}
	}
	return ExtremelySevere
}

// Sum adds up a page of answers keyed by question id. Every value must be an
// integer in [0, max].
func Sum(answers map[string]string, max int) (int, error) {
	if len(answers) == 0 {
		return 0, ErrNoAnswers
	}
	total := 0
	for question, raw := range answers {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || v < 0 || v > max {
			return 0, fmt.Errorf("%w: %s=%q", ErrInvalidAnswer, question, raw)
		}
		total += v
	}
	return total, nil
}

// Score is a scale score that may not have been recorded yet. The zero value
// is unset.
type Score struct {
	value int
	set   bool
}

// Unset is the score of a scale whose page has not been submitted.
var Unset = Score{}

func NewScore(v int) Score {
	return Score{value: v, set: true}
}

// FromStored converts the -1 storage sentinel (or any negative) to Unset.
func FromStored(v int) Score {
	if v < 0 {
		return Unset
	}
	return NewScore(v)
}

// Stored returns the value persisted in the results table, -1 when unset.
func (s Score) Stored() int {
	if !s.set {
		return -1
	}
	return s.value
}

func (s Score) Value() (int, bool) {
	return s.value, s.set
}

func (s Score) IsSet() bool {
	return s.set
}

// Interpret classifies the score, returning Incomplete when unset.
func (s Score) Interpret(scale Scale) Severity {
	if !s.set {
		return Incomplete
	}
	return Classify(scale, s.value)
}

func (s Score) String() string {
	if !s.set {
		return "-"
	}
	return strconv.Itoa(s.value)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(s.value)), nil
}
