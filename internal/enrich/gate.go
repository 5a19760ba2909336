// Package enrich fills the externally sourced GEM fields of a production's
// locations: one batched knowledge-service call per production, merged back
// into the model and written back to the persisted location tables.
package enrich

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed gem_fields.yaml
var gemFieldsYAML []byte

// Field is one of the ten enrichment attributes a location carries. Key is
// the GEM-prefixed key used in location tables and GemData; ReplyKey is the
// JSON key the knowledge service answers under (Key minus the prefix with the
// first rune lowered); Question seeds the prompt.
type Field struct {
	Key      string `yaml:"key"`
	ReplyKey string `yaml:"reply_key"`
	Question string `yaml:"question"`
	Default  string `yaml:"default"`
}

var gemFields = mustLoadFields()

func mustLoadFields() []Field {
	var doc struct {
		Fields []Field `yaml:"fields"`
	}
	if err := yaml.Unmarshal(gemFieldsYAML, &doc); err != nil {
		panic("enrich: invalid gem_fields.yaml: " + err.Error())
	}
	return doc.Fields
}

// Fields returns the ten GEM field definitions in canonical order.
func Fields() []Field {
	return gemFields
}

// NeedsEnrichment reports whether any of the ten GEM fields is missing from
// gem or blank after trimming. Absent and blank are treated identically.
func NeedsEnrichment(gem map[string]string) bool {
	for _, f := range gemFields {
		if strings.TrimSpace(gem[f.Key]) == "" {
			return true
		}
	}
	return false
}
