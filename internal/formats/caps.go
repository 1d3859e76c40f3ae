package formats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Structure is one media type entry of a caps description, for example
// "audio/mpeg, mpegversion=(int)1, layer=(int)3".
type Structure struct {
	Name   string
	Fields map[string]string
}

// Caps is an ordered list of structures ("a; b; c").
type Caps []Structure

// ParseCaps parses the textual caps form produced by the engine.
//
// Type annotations such as "(int)" are dropped and quoted strings are
// unquoted. Lists ("{ 1, 2 }") and ranges ("[ 1, 48000 ]") are kept as raw
// text and interpreted by the accessors. "ANY" and "EMPTY" parse to nil.
func ParseCaps(s string) (Caps, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "ANY" || s == "EMPTY" || s == "NONE" {
		return nil, nil
	}

	var caps Caps
	for _, part := range splitTopLevel(s, ';') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		st, err := parseStructure(part)
		if err != nil {
			return nil, err
		}
		caps = append(caps, st)
	}
	return caps, nil
}

// MustParseCaps is ParseCaps for package-level tables.
func MustParseCaps(s string) Caps {
	caps, err := ParseCaps(s)
	if err != nil {
		panic(err)
	}
	return caps
}

func parseStructure(s string) (Structure, error) {
	items := splitTopLevel(s, ',')
	name := strings.TrimSpace(items[0])
	// "video/x-raw(memory:SystemMemory)" carries caps features after the name
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return Structure{}, fmt.Errorf("formats: caps structure without a name: %q", s)
	}

	st := Structure{Name: name, Fields: make(map[string]string, len(items)-1)}
	for _, item := range items[1:] {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		eq := strings.IndexByte(item, '=')
		if eq <= 0 {
			return Structure{}, fmt.Errorf("formats: malformed caps field %q in %q", item, s)
		}
		key := strings.TrimSpace(item[:eq])
		st.Fields[key] = cleanValue(item[eq+1:])
	}
	return st, nil
}

// cleanValue drops the "(type)" prefix and surrounding quotes.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "(") {
		if end := strings.IndexByte(v, ')'); end > 0 {
			v = strings.TrimSpace(v[end+1:])
		}
	}
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	return v
}

// splitTopLevel splits on sep outside quotes, braces, brackets and parens.
func splitTopLevel(s string, sep byte) []string {
	var (
		out   []string
		depth int
		quote bool
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			quote = !quote
		case quote:
		case c == '{' || c == '[' || c == '(' || c == '<':
			depth++
		case c == '}' || c == ']' || c == ')' || c == '>':
			depth--
		case c == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

// Values expands a field into its alternatives: a plain value yields itself,
// a list "{ a, b }" yields each member.
func (s Structure) Values(field string) []string {
	v, ok := s.Fields[field]
	if !ok {
		return nil
	}
	if strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") {
		var vals []string
		for _, m := range splitTopLevel(v[1:len(v)-1], ',') {
			vals = append(vals, cleanValue(m))
		}
		return vals
	}
	return []string{v}
}

// Int returns an integer field.
func (s Structure) Int(field string) (int, bool) {
	v, ok := s.Fields[field]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Fraction returns a fraction field such as framerate=(fraction)30000/1001.
// A plain integer is returned as n/1.
func (s Structure) Fraction(field string) (num, den int, ok bool) {
	v, found := s.Fields[field]
	if !found {
		return 0, 0, false
	}
	n, d, isFrac := strings.Cut(v, "/")
	num, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil {
		return 0, 0, false
	}
	if !isFrac {
		return num, 1, true
	}
	den, err = strconv.Atoi(strings.TrimSpace(d))
	if err != nil {
		return 0, 0, false
	}
	return num, den, true
}

// String renders the structure back to caps syntax without type annotations.
func (s Structure) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, ", %s=%s", k, s.Fields[k])
	}
	return b.String()
}

// Intersects reports whether two structures can describe the same stream:
// same media type, and every field present on both sides shares a value.
func (s Structure) Intersects(o Structure) bool {
	if s.Name != o.Name {
		return false
	}
	for k := range o.Fields {
		if _, ok := s.Fields[k]; !ok {
			continue
		}
		if !shareValue(s.Values(k), o.Values(k)) {
			return false
		}
	}
	return true
}

func shareValue(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// CanIntersect reports whether any structure of c intersects any structure of o.
func (c Caps) CanIntersect(o Caps) bool {
	for _, a := range c {
		for _, b := range o {
			if a.Intersects(b) {
				return true
			}
		}
	}
	return false
}
