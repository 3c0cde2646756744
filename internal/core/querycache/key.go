package querycache

import "strings"

// Key is a hierarchical cache key such as ("impact-feed", "detail", "42").
// Operations taking a prefix apply to every key that starts with it, so
// ("impact-feed", "list") addresses all list pages whatever their filters.
type Key []string

func NewKey(parts ...string) Key {
	return append(Key(nil), parts...)
}

// Append returns a new key; the receiver is never aliased.
func (k Key) Append(parts ...string) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) Equal(o Key) bool {
	return len(k) == len(o) && k.HasPrefix(o)
}

func (k Key) String() string {
	return "[" + strings.Join(k, " ") + "]"
}

// id is the map key; segments may contain any printable character.
func (k Key) id() string {
	return strings.Join(k, "\x1f")
}
