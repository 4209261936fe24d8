// Package filter turns raw catalog query parameters into typed per-property
// predicates.
//
// Keys take the forms property_<uid>, property_<uid>_from and
// property_<uid>_to. Property uids may contain underscores; only a trailing
// from/to segment is treated as a suffix.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	KeyPrefix  = "property_"
	suffixFrom = "from"
	suffixTo   = "to"
)

var ErrInvalidRange = errors.New("invalid_range")

// Predicate is either a SetPredicate or a RangePredicate.
type Predicate interface {
	isPredicate()
}

// SetPredicate matches assignments whose value_uid is one of Values.
type SetPredicate struct {
	Values []string
}

// RangePredicate matches assignments whose int_value lies in [From, To].
// A nil bound is open. With both bounds nil it matches any assignment on
// the property.
type RangePredicate struct {
	From *int64
	To   *int64
}

func (SetPredicate) isPredicate()   {}
func (RangePredicate) isPredicate() {}

// Set maps property uid to its predicate.
type Set map[string]Predicate

type builder struct {
	values   []string
	from, to *int64
}

// Parse extracts property predicates from values. Non-property keys are
// ignored. When a property receives both bare and from/to keys the set
// predicate wins and the bounds are dropped.
func Parse(values url.Values) (Set, error) {
	builders := make(map[string]*builder)
	get := func(uid string) *builder {
		b, ok := builders[uid]
		if !ok {
			b = &builder{}
			builders[uid] = b
		}
		return b
	}

	// Sorted keys keep error reporting deterministic.
	keys := lo.Keys(values)
	sort.Strings(keys)

	for _, key := range keys {
		uid, suffix, ok := SplitKey(key)
		if !ok {
			continue
		}
		raw := values[key]
		b := get(uid)

		switch suffix {
		case "":
			for _, v := range raw {
				if v = strings.TrimSpace(v); v != "" {
					b.values = append(b.values, v)
				}
			}
		case suffixFrom, suffixTo:
			bound, err := lastBound(key, raw)
			if err != nil {
				return nil, err
			}
			if bound == nil {
				continue
			}
			if suffix == suffixFrom {
				b.from = bound
			} else {
				b.to = bound
			}
		}
	}

	out := make(Set, len(builders))
	for uid, b := range builders {
		if len(b.values) > 0 {
			out[uid] = SetPredicate{Values: lo.Uniq(b.values)}
			continue
		}
		out[uid] = RangePredicate{From: b.from, To: b.to}
	}
	return out, nil
}

// SplitKey returns the property uid and the from/to suffix ("" for bare keys).
// ok is false for keys that are not property filters or carry an empty uid.
func SplitKey(key string) (uid, suffix string, ok bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(key, KeyPrefix)

	if i := strings.LastIndex(rest, "_"); i >= 0 {
		switch rest[i+1:] {
		case suffixFrom, suffixTo:
			uid, suffix = rest[:i], rest[i+1:]
			if uid == "" {
				return "", "", false
			}
			return uid, suffix, true
		}
	}
	if rest == "" {
		return "", "", false
	}
	return rest, "", true
}

// lastBound parses the last non-blank value; repeated bound keys are last-wins.
func lastBound(key string, raw []string) (*int64, error) {
	for i := len(raw) - 1; i >= 0; i-- {
		v := strings.TrimSpace(raw[i])
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidRange, key, v)
		}
		return &parsed, nil
	}
	return nil, nil
}

// UIDs returns the filtered property uids in ascending order.
func (s Set) UIDs() []string {
	uids := lo.Keys(s)
	sort.Strings(uids)
	return uids
}

// Without returns a copy of s lacking uid.
func (s Set) Without(uid string) Set {
	out := make(Set, len(s))
	for k, v := range s {
		if k != uid {
			out[k] = v
		}
	}
	return out
}

// Key is a canonical encoding of s, stable across map iteration order.
func (s Set) Key() string {
	var b strings.Builder
	for _, uid := range s.UIDs() {
		b.WriteString(url.QueryEscape(uid))
		switch p := s[uid].(type) {
		case SetPredicate:
			vals := append([]string(nil), p.Values...)
			sort.Strings(vals)
			b.WriteString("=in:")
			for i, v := range vals {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(url.QueryEscape(v))
			}
		case RangePredicate:
			b.WriteString("=range:")
			b.WriteString(formatBound(p.From))
			b.WriteByte(',')
			b.WriteString(formatBound(p.To))
		}
		b.WriteByte(';')
	}
	return b.String()
}

func formatBound(v *int64) string {
	if v == nil {
		return "*"
	}
	return strconv.FormatInt(*v, 10)
}
