// Package address holds the labeled address value types shared by the
// classifiers and the near-dupe hasher, plus the contracts of the external
// normalizer, parser and language classifier.
package address

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when a caller violates an input contract,
// e.g. label and value slices of different length.
var ErrInvalidInput = errors.New("invalid input")

// Label is a component label from the parser vocabulary.
type Label string

const (
	LabelName          Label = "house" // venue / building name, libpostal calls it "house"
	LabelHouseNumber   Label = "house_number"
	LabelRoad          Label = "road"
	LabelUnit          Label = "unit"
	LabelLevel         Label = "level"
	LabelStaircase     Label = "staircase"
	LabelEntrance      Label = "entrance"
	LabelPOBox         Label = "po_box"
	LabelPostcode      Label = "postcode"
	LabelSuburb        Label = "suburb"
	LabelCityDistrict  Label = "city_district"
	LabelCity          Label = "city"
	LabelIsland        Label = "island"
	LabelStateDistrict Label = "state_district"
	LabelState         Label = "state"
	LabelCountryRegion Label = "country_region"
	LabelCountry       Label = "country"
	LabelWorldRegion   Label = "world_region"
	LabelCategory      Label = "category"
	LabelNear          Label = "near"
)

// labelAliases maps accepted spellings onto the canonical label.
var labelAliases = map[string]Label{
	"name":        LabelName,
	"house":       LabelName,
	"street":      LabelRoad,
	"floor":       LabelLevel,
	"postal_code": LabelPostcode,
	"zip":         LabelPostcode,
	"province":    LabelState,
}

// ParseLabel lowercases and canonicalizes a label. Unknown labels are kept
// verbatim so callers never lose data.
func ParseLabel(s string) Label {
	s = strings.ToLower(strings.TrimSpace(s))
	if l, ok := labelAliases[s]; ok {
		return l
	}
	return Label(s)
}

// Component is one (label, value) pair of a parsed address.
type Component struct {
	Label Label  `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

// LabeledAddress is an ordered list of components. A label may repeat.
type LabeledAddress []Component

// NewLabeledAddress zips labels and values into a LabeledAddress.
func NewLabeledAddress(labels, values []string) (LabeledAddress, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("%w: %d labels but %d values", ErrInvalidInput, len(labels), len(values))
	}
	out := make(LabeledAddress, 0, len(labels))
	for i := range labels {
		out = append(out, Component{Label: ParseLabel(labels[i]), Value: values[i]})
	}
	return out, nil
}

// Values returns every non-blank value carrying the label, in order.
func (a LabeledAddress) Values(label Label) []string {
	var out []string
	for _, c := range a {
		if c.Label == label && strings.TrimSpace(c.Value) != "" {
			out = append(out, c.Value)
		}
	}
	return out
}

// First returns the first non-blank value for label, or "".
func (a LabeledAddress) First(label Label) string {
	for _, c := range a {
		if c.Label == label && strings.TrimSpace(c.Value) != "" {
			return c.Value
		}
	}
	return ""
}

// Has reports whether the address carries a non-blank value for label.
func (a LabeledAddress) Has(label Label) bool {
	return a.First(label) != ""
}

// Split returns the address as parallel label and value slices.
func (a LabeledAddress) Split() (labels, values []string) {
	labels = make([]string, len(a))
	values = make([]string, len(a))
	for i, c := range a {
		labels[i] = string(c.Label)
		values[i] = c.Value
	}
	return labels, values
}
