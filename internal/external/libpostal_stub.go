//go:build !cgo

package external

import "github.com/address-dedupe/internal/address"

// Available reports whether this build links libpostal.
const Available = false

// Libpostal is unavailable without cgo; NewLibpostal always fails.
type Libpostal struct{}

func NewLibpostal() (*Libpostal, error) {
	return nil, ErrUnavailable
}

func (l *Libpostal) Expand(string, address.ExpandOptions, []string) []string { return nil }

func (l *Libpostal) Canonical(string, address.ExpandOptions, []string) string { return "" }

func (l *Libpostal) Parse(string, string, string) address.LabeledAddress { return address.LabeledAddress{} }
