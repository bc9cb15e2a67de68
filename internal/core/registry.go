package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[Kind]KindDefinition)
	registryMu sync.RWMutex
)

// Register adds a kind definition to the registry.
// Panics if the kind is unknown or already registered.
func Register(def KindDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, err := ParseKind(string(def.Info.Kind)); err != nil {
		panic(fmt.Sprintf("cannot register kind: %v", err))
	}
	if _, exists := registry[def.Info.Kind]; exists {
		panic(fmt.Sprintf("kind already registered: %s", def.Info.Kind))
	}

	// Every field accepts its label, snake_case and camelCase spellings first
	specs := make([]FieldSpec, len(def.FieldSpecs))
	for i, spec := range def.FieldSpecs {
		if spec.Label == "" {
			spec.Label = spec.Name
		}
		spec.Headers = headerSpellings(spec.Label, spec.Name, spec.Headers)
		specs[i] = spec
	}
	def.FieldSpecs = specs

	registry[def.Info.Kind] = def
}

// Get returns a kind definition.
// Returns false if not registered.
func Get(kind Kind) (KindDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// MustGet returns a kind definition or an ErrUnknownKind error.
func MustGet(kind Kind) (KindDefinition, error) {
	def, ok := Get(kind)
	if !ok {
		return KindDefinition{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return def, nil
}

// All returns all registered kind definitions.
// Sorted by group then by kind for consistent ordering.
func All() []KindDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]KindDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Kind < result[j].Info.Kind
	})

	return result
}

// KindCount returns the number of registered kinds.
func KindCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// headerSpellings returns label, name, camelCase(name) and extras, deduplicated, in that order.
func headerSpellings(label, name string, extra []string) []string {
	candidates := append([]string{label, name, camelCase(name)}, extra...)

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, h := range candidates {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

// camelCase converts snake_case to camelCase: "ragione_sociale" -> "ragioneSociale".
func camelCase(name string) string {
	parts := strings.Split(name, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
