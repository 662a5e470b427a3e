// Package badge translates inbound badge requests into upstream renderer URLs.
package badge

import (
	"net/url"
	"strings"
)

// Reserved query keys.
const (
	KeyLogo      = "logo"
	KeyLogoColor = "logoColor"
)

// Query is an ordered multi-valued query string. Keys keep the position of
// their first occurrence, which net/url.Values cannot express.
type Query struct {
	keys   []string
	values map[string][]string
}

// ParseQuery parses a raw query string. Malformed escapes are kept literally
// rather than rejected.
func ParseQuery(raw string) Query {
	q := Query{values: map[string][]string{}}
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		k = unescape(k)
		v = unescape(v)
		if k == "" {
			continue
		}
		q.Add(k, v)
	}
	return q
}

func unescape(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// Add appends a value, registering the key at the end if it is new.
func (q *Query) Add(key, value string) {
	if q.values == nil {
		q.values = map[string][]string{}
	}
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = append(q.values[key], value)
}

// Set replaces every value of key, keeping its position when it already exists.
func (q *Query) Set(key, value string) {
	if _, ok := q.values[key]; ok {
		q.values[key] = []string{value}
		return
	}
	q.Add(key, value)
}

// Del removes key.
func (q *Query) Del(key string) {
	if _, ok := q.values[key]; !ok {
		return
	}
	delete(q.values, key)
	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i:i], q.keys[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present, with any number of values.
func (q Query) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

// Single returns the value of key only when it was given exactly once.
// A repeated key is ambiguous and reported as absent.
func (q Query) Single(key string) (string, bool) {
	vs := q.values[key]
	if len(vs) != 1 {
		return "", false
	}
	return vs[0], true
}

// Keys returns the keys in first-seen order.
func (q Query) Keys() []string {
	out := make([]string, len(q.keys))
	copy(out, q.keys)
	return out
}

// Len returns the number of distinct keys.
func (q Query) Len() int { return len(q.keys) }

// Clone returns a deep copy.
func (q Query) Clone() Query {
	c := Query{keys: q.Keys(), values: make(map[string][]string, len(q.values))}
	for k, vs := range q.values {
		c.values[k] = append([]string(nil), vs...)
	}
	return c
}

// Encode renders key=value pairs joined by "&" in key order. Values are escaped
// like JavaScript's encodeURIComponent; repeated values are comma-joined.
func (q Query) Encode() string {
	var b strings.Builder
	for i, k := range q.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(EscapeComponent(k))
		b.WriteByte('=')
		b.WriteString(EscapeComponent(strings.Join(q.values[k], ",")))
	}
	return b.String()
}

var componentUnreserved = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent percent-encodes s leaving only A-Z a-z 0-9 - _ . ! ~ * ' ( )
// unescaped.
func EscapeComponent(s string) string {
	return componentUnreserved.Replace(url.QueryEscape(s))
}
