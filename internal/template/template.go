// Package template renders sbatch templates: `{key}` placeholder
// substitution with strict key-set checking, and elision of scheduler
// directives whose value ends up empty.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/slurmkit/slaunch/internal/confmap"
)

// DirectivePrefix marks scheduler-directive lines eligible for empty-value
// elision.
const DirectivePrefix = "#SBATCH"

// placeholderRe matches {identifier} placeholders.
var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// KeyMismatchError reports the difference between the placeholders a
// template requires and the keys the provided values carry. Both sides are
// part of the message so operators can spot the missing or superfluous key
// without diffing files by hand.
type KeyMismatchError struct {
	Missing []string // placeholders with no value
	Extra   []string // values no placeholder consumes
}

func (e *KeyMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing values for placeholders: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("values without placeholders: %s", strings.Join(e.Extra, ", ")))
	}
	return "template keys do not match provided keys: " + strings.Join(parts, "; ")
}

// Placeholders returns the sorted set of placeholder identifiers found in
// the template.
func Placeholders(tmpl string) []string {
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		seen[m[1]] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Project reduces conf to the entries named by the template's placeholders,
// stringifying every value. Keys of conf that no placeholder consumes are
// filtered out here; a placeholder with no configuration entry surfaces
// later as a KeyMismatchError from RenderValues.
func Project(tmpl string, conf confmap.Map) map[string]string {
	values := map[string]string{}
	for _, key := range Placeholders(tmpl) {
		if v, ok := conf[key]; ok {
			values[key] = confmap.Stringify(v)
		}
	}
	return values
}

// RenderValues substitutes placeholders with the given values. The value
// key set must equal the placeholder set exactly; any difference, in either
// direction, is a KeyMismatchError.
func RenderValues(tmpl string, values map[string]string) (string, error) {
	placeholders := Placeholders(tmpl)
	required := make(map[string]bool, len(placeholders))
	for _, key := range placeholders {
		required[key] = true
	}

	mismatch := &KeyMismatchError{}
	for _, key := range placeholders {
		if _, ok := values[key]; !ok {
			mismatch.Missing = append(mismatch.Missing, key)
		}
	}
	for key := range values {
		if !required[key] {
			mismatch.Extra = append(mismatch.Extra, key)
		}
	}
	sort.Strings(mismatch.Extra)
	if len(mismatch.Missing) > 0 || len(mismatch.Extra) > 0 {
		return "", mismatch
	}

	rendered := placeholderRe.ReplaceAllStringFunc(tmpl, func(ph string) string {
		return values[strings.Trim(ph, "{}")]
	})
	return CleanDirectives(rendered), nil
}

// Render projects conf onto the template's placeholders and renders.
func Render(tmpl string, conf confmap.Map) (string, error) {
	return RenderValues(tmpl, Project(tmpl, conf))
}

// CleanDirectives removes every #SBATCH line whose portion after "=" is
// empty or whitespace-only. All other lines pass through in order.
func CleanDirectives(rendered string) string {
	lines := strings.Split(rendered, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, DirectivePrefix) && strings.Contains(line, "=") {
			if strings.TrimSpace(strings.Split(line, "=")[1]) == "" {
				continue
			}
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
