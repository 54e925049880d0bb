package normalizer

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/rules.yaml
var rulesYAML []byte

// LanguageRules holds the dictionaries of one language.
type LanguageRules struct {
	Name             map[string][]string `yaml:"name"`
	Street           map[string][]string `yaml:"street"`
	Toponym          map[string][]string `yaml:"toponym"`
	Unit             map[string][]string `yaml:"unit"`
	Level            map[string][]string `yaml:"level"`
	Numex            map[string]string   `yaml:"numex"`
	UnitDesignators  []string            `yaml:"unit_designators"`
	LevelDesignators []string            `yaml:"level_designators"`
	POBoxDesignators []string            `yaml:"po_box_designators"`
}

// RulesConfig is the parsed dictionary file.
type RulesConfig struct {
	Languages map[string]LanguageRules `yaml:"languages"`
}

// LoadRulesConfig parses the embedded dictionaries.
func LoadRulesConfig() (*RulesConfig, error) {
	return ParseRulesConfig(rulesYAML)
}

// ParseRulesConfig parses dictionaries from YAML. Keys and expansions are
// lowercased so lookups can work on normalized tokens.
func ParseRulesConfig(b []byte) (*RulesConfig, error) {
	config := &RulesConfig{}
	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for lang, r := range config.Languages {
		r.Name = lowerDict(r.Name)
		r.Street = lowerDict(r.Street)
		r.Toponym = lowerDict(r.Toponym)
		r.Unit = lowerDict(r.Unit)
		r.Level = lowerDict(r.Level)
		config.Languages[lang] = r
	}
	return config, nil
}

// LanguageCodes returns the configured languages, sorted.
func (rc *RulesConfig) LanguageCodes() []string {
	out := make([]string, 0, len(rc.Languages))
	for l := range rc.Languages {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func lowerDict(d map[string][]string) map[string][]string {
	if d == nil {
		return nil
	}
	out := make(map[string][]string, len(d))
	for k, vs := range d {
		lv := make([]string, len(vs))
		for i, v := range vs {
			lv[i] = strings.ToLower(v)
		}
		out[strings.ToLower(k)] = lv
	}
	return out
}
