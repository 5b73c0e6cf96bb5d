package confmap

import "reflect"

// WarnFunc receives the dotted path of a leaf whose base value was
// overwritten during a merge. A nil WarnFunc suppresses warnings.
type WarnFunc func(path string)

// DeepMerge merges override onto base and returns a new Map; base is never
// mutated. The rules, applied per key of override:
//
//   - both values are maps: recurse
//   - both values are equal scalars: keep as-is
//   - anything else: the override value wins, warn reports the dotted path
//
// Keys present only in override are added; keys present only in base are
// preserved untouched. This is the single layering primitive for the whole
// tool (defaults, CLI flags, shared block, per-job overrides).
func DeepMerge(base, override Map, warn WarnFunc) Map {
	merged := Clone(base)
	mergeInto(merged, override, "", warn)
	return merged
}

func mergeInto(dst, src Map, prefix string, warn WarnFunc) {
	for key, sv := range src {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		dv, exists := dst[key]
		if exists {
			dm, dstIsMap := AsMap(dv)
			sm, srcIsMap := AsMap(sv)
			if dstIsMap && srcIsMap {
				mergeInto(dm, sm, path, warn)
				continue
			}
			if reflect.DeepEqual(dv, sv) {
				continue // same leaf value
			}
			if warn != nil {
				warn(path)
			}
		}
		dst[key] = cloneValue(sv)
	}
}
