package storage

import (
	"encoding/json"
	"strconv"

	"github.com/iudanet/offlinedesk/internal/models"
)

// IndexKey encodes a single attribute value for index lookups.
// Values of different kinds never collide: "s:1" and "n:1" differ.
// The second result is false for values that cannot be indexed
// (nil, objects, arrays).
func IndexKey(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return "s:" + val, true
	case bool:
		return "b:" + strconv.FormatBool(val), true
	case float64:
		return numberKey(val), true
	case float32:
		return numberKey(float64(val)), true
	case int:
		return numberKey(float64(val)), true
	case int32:
		return numberKey(float64(val)), true
	case int64:
		return numberKey(float64(val)), true
	case uint:
		return numberKey(float64(val)), true
	case uint32:
		return numberKey(float64(val)), true
	case uint64:
		return numberKey(float64(val)), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return "", false
		}
		return numberKey(f), true
	}
	return "", false
}

func numberKey(f float64) string {
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// IndexKeys returns every key the record contributes to idx.
// A multiEntry index over an array attribute yields one key per element,
// duplicates removed.
func IndexKeys(rec models.Record, idx IndexSchema) []string {
	raw, ok := rec[idx.Attribute]
	if !ok {
		return nil
	}

	if arr, isArr := raw.([]any); isArr {
		if !idx.MultiEntry {
			return nil
		}
		seen := make(map[string]bool, len(arr))
		keys := make([]string, 0, len(arr))
		for _, el := range arr {
			k, ok := IndexKey(el)
			if !ok || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
		return keys
	}

	if arr, isArr := raw.([]string); isArr {
		return IndexKeys(models.Record{idx.Attribute: toAny(arr)}, idx)
	}

	k, ok := IndexKey(raw)
	if !ok {
		return nil
	}
	return []string{k}
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
