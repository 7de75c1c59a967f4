// Package activitypub accepts federated activities and applies the updates
// they describe to remote statuses.
package activitypub

import (
	"sort"
	"time"

	"github.com/davecheney/revise/internal/lang"
)

func boolFromAny(v any) bool {
	b, _ := v.(bool)
	return b
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

func mapFromAny(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func timeFromAnyOrZero(v any) time.Time {
	switch v := v.(type) {
	case string:
		t, _ := time.Parse(time.RFC3339, v)
		return t
	case time.Time:
		return v
	default:
		return time.Time{}
	}
}

func floatFromAny(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case int:
		// shakes fist at json number type
		return float64(v)
	}
	return 0
}

// anyToSlice returns v as a slice. A single value becomes a slice of one,
// nil becomes an empty slice.
func anyToSlice(v any) []any {
	switch v := v.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

// idFromAny returns the id of v, which may be the id itself or an object
// with an id property.
func idFromAny(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case map[string]any:
		return stringFromAny(v["id"])
	}
	return ""
}

// hrefFromAny returns the first link in v. Links may be bare strings, Link
// objects, or a list of either.
func hrefFromAny(v any) string {
	for _, l := range anyToSlice(v) {
		switch l := l.(type) {
		case string:
			return l
		case map[string]any:
			if href := stringFromAny(l["href"]); href != "" {
				return href
			}
			if url := hrefFromAny(l["url"]); url != "" {
				return url
			}
		}
	}
	return ""
}

// languageFromMaps returns the language of the object from its contentMap,
// or summaryMap if it has no contentMap. The entry matching content is
// preferred, otherwise the first valid language in key order.
func languageFromMaps(obj map[string]any) string {
	for _, key := range []string{"contentMap", "summaryMap"} {
		m := mapFromAny(obj[key])
		if len(m) == 0 {
			continue
		}
		var body string
		switch key {
		case "contentMap":
			body = stringFromAny(obj["content"])
		default:
			body = stringFromAny(obj["summary"])
		}
		codes := make([]string, 0, len(m))
		for code := range m {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			if body != "" && stringFromAny(m[code]) == body {
				if l, ok := lang.Normalize(code); ok {
					return l
				}
			}
		}
		for _, code := range codes {
			if l, ok := lang.Normalize(code); ok {
				return l
			}
		}
	}
	return ""
}

// textFromAny returns the value of key, falling back to the entry of its
// language map for language.
func textFromAny(obj map[string]any, key, language string) string {
	if s := stringFromAny(obj[key]); s != "" {
		return s
	}
	for code, v := range mapFromAny(obj[key+"Map"]) {
		if l, _ := lang.Normalize(code); l == language {
			return stringFromAny(v)
		}
	}
	return ""
}
