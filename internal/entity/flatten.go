package entity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/offer-generator/constants"
)

// FlattenValue renders a field value on one line. Maps become "k: v, k: v"
// with sorted keys and lists are comma-joined. Deny-listed subkeys are
// dropped at every depth, and so are price-bearing subkeys unless
// allowPrices is set.
func FlattenValue(v any, allowPrices bool) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case []string:
		return joinNonEmpty(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, FlattenValue(item, allowPrices))
		}
		return joinNonEmpty(parts)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			if constants.IsHiddenField(k) || (!allowPrices && constants.IsPriceField(k)) {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := FlattenValue(t[k], allowPrices); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, ", ")
	case Section:
		return FlattenValue(map[string]any(t), allowPrices)
	}
	return fmt.Sprint(v)
}

func joinNonEmpty(items []string) string {
	parts := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
