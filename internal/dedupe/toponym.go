package dedupe

import (
	"github.com/address-dedupe/internal/address"
)

// ToponymLevel is one rung of the place hierarchy.
type ToponymLevel struct {
	Name   string
	Labels []address.Label
	Kind   FieldKind
}

// ToponymLevels are compared most specific first.
var ToponymLevels = []ToponymLevel{
	{Name: "suburb", Labels: []address.Label{address.LabelSuburb, address.LabelCityDistrict}, Kind: FieldToponym},
	{Name: "city", Labels: []address.Label{address.LabelCity, address.LabelIsland}, Kind: FieldToponym},
	{Name: "state_district", Labels: []address.Label{address.LabelStateDistrict}, Kind: FieldToponym},
	{Name: "state", Labels: []address.Label{address.LabelState, address.LabelCountryRegion}, Kind: FieldToponym},
	{Name: "country", Labels: []address.Label{address.LabelCountry}, Kind: FieldToponym},
	{Name: "postcode", Labels: []address.Label{address.LabelPostcode}, Kind: FieldPostalCode},
}

// LevelVerdict is the outcome of one level, for explanations.
type LevelVerdict struct {
	Level  string `json:"level"`
	Status Status `json:"status"`
	Shared bool   `json:"shared"`
}

// ClassifyToponym compares two toponym label/value lists.
func (c *Classifier) ClassifyToponym(labels1, values1, labels2, values2 []string, languages []string) (Status, error) {
	a1, err := address.NewLabeledAddress(labels1, values1)
	if err != nil {
		return NullDuplicate, err
	}
	a2, err := address.NewLabeledAddress(labels2, values2)
	if err != nil {
		return NullDuplicate, err
	}
	status, _ := c.ClassifyToponymAddress(a1, a2, languages)
	return status, nil
}

// ClassifyToponymAddress is ClassifyToponym over parsed addresses. The
// composite is the weakest verdict of the levels present on both sides; a
// level present on one side only caps the result at NeedsReview. Without any
// shared level there is no evidence and the result is NullDuplicate.
func (c *Classifier) ClassifyToponymAddress(a1, a2 address.LabeledAddress, languages []string) (Status, []LevelVerdict) {
	var verdicts []LevelVerdict
	composite := NullDuplicate
	shared, oneSided := false, false

	for _, level := range ToponymLevels {
		v1, v2 := levelValues(a1, level), levelValues(a2, level)
		switch {
		case len(v1) == 0 && len(v2) == 0:
			continue
		case len(v1) == 0 || len(v2) == 0:
			oneSided = true
			verdicts = append(verdicts, LevelVerdict{Level: level.Name, Status: NeedsReview})
			continue
		}

		best := c.ClassifyValues(v1, v2, level.Kind, languages)
		verdicts = append(verdicts, LevelVerdict{Level: level.Name, Status: best, Shared: true})
		if best == NullDuplicate {
			continue
		}
		shared = true
		composite = Weakest(composite, best)
	}

	if !shared {
		return NullDuplicate, verdicts
	}
	if oneSided {
		composite = Min(composite, NeedsReview)
	}
	return composite, verdicts
}

func levelValues(a address.LabeledAddress, level ToponymLevel) []string {
	var out []string
	for _, l := range level.Labels {
		out = append(out, a.Values(l)...)
	}
	return out
}
