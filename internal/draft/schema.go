package draft

import (
	"fmt"
	"sort"

	"github.com/allgemeinbildung/abubox/internal/config"
)

// Schema names the two text slots of a page variant. It is static
// configuration, not stored with the record.
type Schema struct {
	Name     string
	SlotAKey string
	SlotBKey string
	LabelA   string
	LabelB   string
}

var (
	// TaskSchema is the task answer plus reflection page.
	TaskSchema = Schema{
		Name:     "auftrag",
		SlotAKey: "auftrag",
		SlotBKey: "reflexionsfrage",
		LabelA:   "Auftrag",
		LabelB:   "Reflexionsfrage",
	}
	// AnswersSchema is the free-response answers plus reflection page.
	AnswersSchema = Schema{
		Name:     "antworten",
		SlotAKey: "antworten",
		SlotBKey: "reflexionsfrage",
		LabelA:   "Antworten",
		LabelB:   "Reflexionsfrage",
	}
)

var builtinSchemas = map[string]Schema{
	TaskSchema.Name:    TaskSchema,
	AnswersSchema.Name: AnswersSchema,
}

// SchemaNames lists the built-in variants.
func SchemaNames() []string {
	names := make([]string, 0, len(builtinSchemas))
	for name := range builtinSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemaFromConfig resolves the configured variant and applies any key or label overrides.
func SchemaFromConfig(cfg config.SchemaConfig) (Schema, error) {
	s, ok := builtinSchemas[cfg.Variant]
	if !ok {
		if cfg.SlotAKey == "" || cfg.SlotBKey == "" {
			return Schema{}, fmt.Errorf("unknown schema variant %q", cfg.Variant)
		}
		s = Schema{Name: cfg.Variant}
	}

	if cfg.SlotAKey != "" {
		s.SlotAKey = cfg.SlotAKey
	}
	if cfg.SlotBKey != "" {
		s.SlotBKey = cfg.SlotBKey
	}
	if cfg.LabelA != "" {
		s.LabelA = cfg.LabelA
	}
	if cfg.LabelB != "" {
		s.LabelB = cfg.LabelB
	}
	if s.LabelA == "" {
		s.LabelA = s.SlotAKey
	}
	if s.LabelB == "" {
		s.LabelB = s.SlotBKey
	}

	if s.SlotAKey == s.SlotBKey {
		return Schema{}, fmt.Errorf("schema %q: slot keys must differ, both are %q", s.Name, s.SlotAKey)
	}
	return s, nil
}
