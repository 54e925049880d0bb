package address

// Components is a bitmask selecting which address-component dictionaries a
// normalizer applies. Bit values follow libpostal so they can be handed to
// gopostal unchanged.
type Components uint16

const (
	ComponentNone        Components = 0
	ComponentAny         Components = 1 << 0
	ComponentName        Components = 1 << 1
	ComponentHouseNumber Components = 1 << 2
	ComponentStreet      Components = 1 << 3
	ComponentUnit        Components = 1 << 4
	ComponentLevel       Components = 1 << 5
	ComponentStaircase   Components = 1 << 6
	ComponentEntrance    Components = 1 << 7
	ComponentCategory    Components = 1 << 8
	ComponentNear        Components = 1 << 9
	ComponentToponym     Components = 1 << 13
	ComponentPostalCode  Components = 1 << 14
	ComponentPOBox       Components = 1 << 15
	ComponentAll         Components = (1 << 16) - 1
)

// Has reports whether every bit of other is set.
func (c Components) Has(other Components) bool { return c&other == other && other != 0 }

// ExpandOptions mirrors libpostal's normalize options.
type ExpandOptions struct {
	Components             Components `yaml:"components" json:"components"`
	LatinASCII             bool       `yaml:"latin_ascii" json:"latin_ascii"`
	Transliterate          bool       `yaml:"transliterate" json:"transliterate"`
	StripAccents           bool       `yaml:"strip_accents" json:"strip_accents"`
	Decompose              bool       `yaml:"decompose" json:"decompose"`
	Lowercase              bool       `yaml:"lowercase" json:"lowercase"`
	TrimString             bool       `yaml:"trim_string" json:"trim_string"`
	ReplaceWordHyphens     bool       `yaml:"replace_word_hyphens" json:"replace_word_hyphens"`
	DeleteWordHyphens      bool       `yaml:"delete_word_hyphens" json:"delete_word_hyphens"`
	ReplaceNumericHyphens  bool       `yaml:"replace_numeric_hyphens" json:"replace_numeric_hyphens"`
	DeleteNumericHyphens   bool       `yaml:"delete_numeric_hyphens" json:"delete_numeric_hyphens"`
	SplitAlphaFromNumeric  bool       `yaml:"split_alpha_from_numeric" json:"split_alpha_from_numeric"`
	DeleteFinalPeriods     bool       `yaml:"delete_final_periods" json:"delete_final_periods"`
	DeleteAcronymPeriods   bool       `yaml:"delete_acronym_periods" json:"delete_acronym_periods"`
	DropEnglishPossessives bool       `yaml:"drop_english_possessives" json:"drop_english_possessives"`
	DeleteApostrophes      bool       `yaml:"delete_apostrophes" json:"delete_apostrophes"`
	ExpandNumex            bool       `yaml:"expand_numex" json:"expand_numex"`
	RomanNumerals          bool       `yaml:"roman_numerals" json:"roman_numerals"`
}

// DefaultExpandOptions matches libpostal's defaults.
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{
		Components:             ComponentName | ComponentHouseNumber | ComponentStreet | ComponentPOBox | ComponentUnit | ComponentLevel | ComponentPostalCode,
		LatinASCII:             true,
		Transliterate:          true,
		StripAccents:           true,
		Decompose:              true,
		Lowercase:              true,
		TrimString:             true,
		ReplaceWordHyphens:     true,
		DeleteWordHyphens:      true,
		ReplaceNumericHyphens:  false,
		DeleteNumericHyphens:   true,
		SplitAlphaFromNumeric:  true,
		DeleteFinalPeriods:     true,
		DeleteAcronymPeriods:   true,
		DropEnglishPossessives: true,
		DeleteApostrophes:      true,
		ExpandNumex:            true,
		RomanNumerals:          true,
	}
}

// WithComponents returns a copy restricted to the given components.
func (o ExpandOptions) WithComponents(c Components) ExpandOptions {
	o.Components = c
	return o
}

// Normalizer produces normalized forms of a single field value.
//
// Expand returns every plausible normalized form (abbreviation expansions,
// transliterations). Canonical returns exactly one deterministic form, used
// where low cardinality matters more than recall (blocking keys).
// Implementations must be safe for concurrent use.
type Normalizer interface {
	Expand(value string, opts ExpandOptions, languages []string) []string
	Canonical(value string, opts ExpandOptions, languages []string) string
}

// Parser splits a raw address into labeled components. language and country
// are optional hints.
type Parser interface {
	Parse(raw, language, country string) LabeledAddress
}

// LanguageClassifier maps a raw string to language code probabilities.
type LanguageClassifier interface {
	Classify(raw string) map[string]float64
}
