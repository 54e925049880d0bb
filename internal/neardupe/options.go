package neardupe

import (
	"fmt"
	"math"

	"github.com/address-dedupe/internal/address"
)

// DefaultGeohashPrecision is a ~1.2km x 0.6km cell.
const DefaultGeohashPrecision = 6

// Options selects which cores, qualifiers and key families are emitted.
type Options struct {
	WithName                      bool `yaml:"with_name" json:"with_name"`
	WithAddress                   bool `yaml:"with_address" json:"with_address"`
	WithUnit                      bool `yaml:"with_unit" json:"with_unit"`
	WithCityOrEquivalent          bool `yaml:"with_city_or_equivalent" json:"with_city_or_equivalent"`
	WithSmallContainingBoundaries bool `yaml:"with_small_containing_boundaries" json:"with_small_containing_boundaries"`
	WithPostalCode                bool `yaml:"with_postal_code" json:"with_postal_code"`
	WithLatLon                    bool `yaml:"with_latlon" json:"with_latlon"`
	GeohashPrecision              int  `yaml:"geohash_precision" json:"geohash_precision"`
	NameAndAddressKeys            bool `yaml:"name_and_address_keys" json:"name_and_address_keys"`
	NameOnlyKeys                  bool `yaml:"name_only_keys" json:"name_only_keys"`
	AddressOnlyKeys               bool `yaml:"address_only_keys" json:"address_only_keys"`
}

// DefaultOptions emits name+address and address-only keys qualified by
// postal code, city and geohash.
func DefaultOptions() Options {
	return Options{
		WithName:             true,
		WithAddress:          true,
		WithCityOrEquivalent: true,
		WithPostalCode:       true,
		WithLatLon:           true,
		GeohashPrecision:     DefaultGeohashPrecision,
		NameAndAddressKeys:   true,
		AddressOnlyKeys:      true,
	}
}

// Validate reports option values NearDupeHashes would reject.
func (o Options) Validate() error {
	_, err := o.precision()
	return err
}

func (o Options) precision() (uint, error) {
	p := o.GeohashPrecision
	if p == 0 {
		p = DefaultGeohashPrecision
	}
	if p < 1 || p > 12 {
		return 0, fmt.Errorf("%w: geohash precision %d outside 1..12", address.ErrInvalidInput, o.GeohashPrecision)
	}
	return uint(p), nil
}

// GeoQualifier carries optional geography attached to a record.
type GeoQualifier struct {
	PostalCode         string   `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
	ContainingBoundary string   `json:"containing_boundary,omitempty" bson:"containing_boundary,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
}

// LatLon builds a qualifier holding only coordinates.
func LatLon(lat, lon float64) GeoQualifier {
	return GeoQualifier{Latitude: &lat, Longitude: &lon}
}

func (g GeoQualifier) hasLatLon() bool {
	return g.Latitude != nil && g.Longitude != nil
}

func (g GeoQualifier) validate() error {
	if !g.hasLatLon() {
		return nil
	}
	lat, lon := *g.Latitude, *g.Longitude
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates (%v, %v) out of range", address.ErrInvalidInput, lat, lon)
	}
	return nil
}

// NameOptions are the normalizer options for NameHashes.
type NameOptions = address.ExpandOptions

// DefaultNameOptions expands with the name and street dictionaries.
func DefaultNameOptions() NameOptions {
	return address.DefaultExpandOptions().WithComponents(address.ComponentName | address.ComponentStreet)
}
