// Package dedupe classifies pairs of address fields as duplicates.
//
// Every classifier returns a Status from an ordered lattice. Missing data is
// NullDuplicate, not an error; the only hard failure is a caller contract
// violation (address.ErrInvalidInput).
package dedupe

import (
	"fmt"
	"strings"
)

// Status is the duplicate verdict, ordered by strength of evidence.
type Status int

const (
	NullDuplicate Status = iota
	NonDuplicate
	NeedsReview
	LikelyDuplicate
	ExactDuplicate
)

var statusNames = [...]string{
	NullDuplicate:   "NULL_DUPLICATE",
	NonDuplicate:    "NON_DUPLICATE",
	NeedsReview:     "NEEDS_REVIEW",
	LikelyDuplicate: "LIKELY_DUPLICATE",
	ExactDuplicate:  "EXACT_DUPLICATE",
}

func (s Status) String() string {
	if s < NullDuplicate || s > ExactDuplicate {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus accepts the upper-case names, case-insensitively.
func ParseStatus(v string) (Status, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	for i, name := range statusNames {
		if name == v {
			return Status(i), nil
		}
	}
	return NullDuplicate, fmt.Errorf("unknown duplicate status %q", v)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IsDuplicate is true for LikelyDuplicate and ExactDuplicate.
func (s Status) IsDuplicate() bool { return s >= LikelyDuplicate }

// Less orders statuses by strength.
func (s Status) Less(other Status) bool { return s < other }

// Min returns the weaker of two statuses.
func Min(a, b Status) Status {
	if a < b {
		return a
	}
	return b
}

// Weakest combines verdicts: the weakest non-null status, or NullDuplicate
// when every input is null.
func Weakest(statuses ...Status) Status {
	out := NullDuplicate
	for _, s := range statuses {
		if s == NullDuplicate {
			continue
		}
		if out == NullDuplicate || s < out {
			out = s
		}
	}
	return out
}
