package llm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// Normalize walks the declared schema over a decoded completion:
//   - unknown section keys are dropped
//   - numeric-looking strings in number fields become numbers
//   - absent declared keys get their default; present keys, including
//     explicit nulls, are never overwritten
//
// It returns the normalized document and a list of the adjustments made.
func Normalize(raw map[string]any) (map[string]any, []string) {
	var adj []string
	out := map[string]any{
		"schema_version": entity.SchemaVersion,
		"offer_date":     topLevelString(raw, "offer_date", &adj),
		"offer_number":   topLevelString(raw, "offer_number", &adj),
	}

	for _, sec := range entity.OfferSchema() {
		src, ok := raw[sec.Name].(map[string]any)
		if !ok {
			if v, present := raw[sec.Name]; present && v != nil {
				adj = append(adj, sec.Name+"(type)")
			}
			src = map[string]any{}
		}

		dst := make(map[string]any, len(sec.Fields))
		for _, f := range sec.Fields {
			v, present := src[f.Name]
			if !present {
				dst[f.Name] = f.Kind.Default()
				continue
			}
			cv, note := coerce(f.Kind, v)
			if note != "" {
				adj = append(adj, sec.Name+"."+f.Name+"("+note+")")
			}
			dst[f.Name] = cv
		}

		unknown := make([]string, 0)
		for k := range src {
			if _, declared := sec.Field(k); !declared {
				unknown = append(unknown, sec.Name+"."+k+"(unknown)")
			}
		}
		sort.Strings(unknown)
		adj = append(adj, unknown...)

		out[sec.Name] = dst
	}
	return out, adj
}

// coerce converts v toward kind. nil passes through untouched. Values that
// cannot be converted become nil and are reported.
func coerce(kind entity.FieldKind, v any) (any, string) {
	if v == nil {
		return nil, ""
	}
	switch kind {
	case entity.KindNumber:
		switch t := v.(type) {
		case float64:
			return t, ""
		case string:
			if strings.TrimSpace(t) == "" {
				return nil, "empty"
			}
			if f, ok := entity.ParseAmount(t); ok {
				return f, "coerced"
			}
			return nil, "not_numeric"
		case bool:
			return nil, "type"
		}
	case entity.KindBool:
		switch t := v.(type) {
		case bool:
			return t, ""
		case float64:
			return t != 0, "coerced"
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "yes", "tak", "y", "t", "1", "x":
				return true, "coerced"
			case "false", "no", "nie", "n", "f", "0", "":
				return false, "coerced"
			}
			return nil, "not_bool"
		}
	case entity.KindList:
		switch t := v.(type) {
		case []any:
			return t, ""
		case string:
			if strings.TrimSpace(t) == "" {
				return []any{}, "coerced"
			}
			var items []any
			for _, p := range strings.Split(t, ",") {
				if s := strings.TrimSpace(p); s != "" {
					items = append(items, s)
				}
			}
			return items, "coerced"
		}
		return []any{v}, "coerced"
	default:
		switch t := v.(type) {
		case string:
			return t, ""
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), "coerced"
		case bool:
			return strconv.FormatBool(t), "coerced"
		case map[string]any, []any:
			if s := entity.FlattenValue(t, false); s != "" {
				return s, "flattened"
			}
			return nil, "flattened"
		}
	}
	return nil, "type"
}

func topLevelString(raw map[string]any, key string, adj *[]string) string {
	switch t := raw[key].(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		*adj = append(*adj, key+"(coerced)")
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		*adj = append(*adj, key+"(type)")
		return fmt.Sprint(t)
	}
}
