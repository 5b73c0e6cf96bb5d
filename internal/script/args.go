// Package script converts a nested script-configuration map into the flat,
// shell-quoted `dotted.key=value` argument string handed to the launched
// program.
package script

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slurmkit/slaunch/internal/confmap"
)

// Sentinel is the reserved key that assigns a value directly to the
// enclosing dotted path instead of extending it one level:
// {a: {__value__: x, b: y}} flattens to `a=x a.b=y`.
const Sentinel = "__value__"

// QuoteError reports a value that cannot be quoted because it contains both
// quote characters.
type QuoteError struct {
	Value string
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("cannot quote %q: value contains both single and double quotes", e.Value)
}

// TokenError reports a token that needs an outer single-quote wrap (it
// contains more than one "=") but already contains a single quote, which
// would make it unparseable downstream.
type TokenError struct {
	Token string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("cannot wrap token %q: keys cannot combine multiple '=' with single quotes", e.Token)
}

// Quote makes a single value shell-safe. Parentheses are always
// backslash-escaped. A value containing a space or "=" is wrapped in double
// quotes, or single quotes when it already holds a double quote; holding
// both quote characters is a QuoteError.
func Quote(value interface{}) (string, error) {
	v := stringify(value)
	v = strings.ReplaceAll(v, "(", `\(`)
	v = strings.ReplaceAll(v, ")", `\)`)
	if strings.ContainsAny(v, " =") {
		switch {
		case !strings.Contains(v, `"`):
			v = `"` + v + `"`
		case !strings.Contains(v, "'"):
			v = "'" + v + "'"
		default:
			return "", &QuoteError{Value: stringify(value)}
		}
	}
	return v, nil
}

// Flatten walks the script map depth-first and emits one
// `dotted.key=quotedValue` token per leaf, space-separated. At each level
// the Sentinel entry is emitted first (against the parent path), then the
// remaining keys in sorted order so output is reproducible.
func Flatten(scriptMap confmap.Map) (string, error) {
	var sb strings.Builder
	if err := flattenInto(&sb, scriptMap, ""); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

func flattenInto(sb *strings.Builder, m confmap.Map, prefix string) error {
	if v, ok := m[Sentinel]; ok {
		if _, isMap := confmap.AsMap(v); isMap {
			return fmt.Errorf("sentinel %s at %q must hold a terminal value, got a mapping", Sentinel, prefix)
		}
		tok, err := token(prefix, v)
		if err != nil {
			return err
		}
		sb.WriteString(tok)
		sb.WriteString(" ")
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		if k != Sentinel {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if sub, isMap := confmap.AsMap(m[k]); isMap {
			if err := flattenInto(sb, sub, path); err != nil {
				return err
			}
			continue
		}
		tok, err := token(path, m[k])
		if err != nil {
			return err
		}
		sb.WriteString(tok)
		sb.WriteString(" ")
	}
	return nil
}

// token builds `path=quotedValue` and applies the outer single-quote wrap
// for tokens carrying more than one "=".
func token(path string, value interface{}) (string, error) {
	quoted, err := Quote(value)
	if err != nil {
		return "", err
	}
	candidate := path + "=" + quoted
	if strings.Count(candidate, "=") > 1 {
		if strings.Contains(candidate, "'") {
			return "", &TokenError{Token: candidate}
		}
		candidate = "'" + candidate + "'"
	}
	return candidate, nil
}

// stringify renders script values; YAML nulls become the literal "null" so
// explicit null overrides survive the trip to the downstream parser.
func stringify(v interface{}) string {
	if v == nil {
		return "null"
	}
	return confmap.Stringify(v)
}
