// Package obfuscate rewrites class and id identifiers in markup to short synthetic names.
//
// Every call is independent: each document gets a fresh ObfuscationMap, so names are
// consistent within one document and never leak across documents.
package obfuscate

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultIdentifierPattern matches CSS-style identifiers. Template placeholders such as
// "{{ .Class }}" do not match and are left untouched.
var DefaultIdentifierPattern = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

const (
	classPrefix = "c"
	idPrefix    = "i"
)

// Options selects what gets renamed. Zero values fall back to the HTML defaults.
type Options struct {
	IdentifierPattern *regexp.Regexp
	ClassAttribute    string
	IDAttribute       string
}

func (o Options) withDefaults() Options {
	if o.IdentifierPattern == nil {
		o.IdentifierPattern = DefaultIdentifierPattern
	}
	if o.ClassAttribute == "" {
		o.ClassAttribute = "class"
	}
	if o.IDAttribute == "" {
		o.IDAttribute = "id"
	}
	return o
}

var (
	// A comment, or a start tag with its name and attribute section.
	tagRe = regexp.MustCompile(`<!--[\s\S]*?-->|<([a-zA-Z][a-zA-Z0-9:._-]*)((?:"[^"]*"|'[^']*'|[^'">])*)>`)
	// One attribute: name, then optionally "=" and a double-quoted, single-quoted or bare value.
	attrRe  = regexp.MustCompile(`([^\s"'=<>/]+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'=<>` + "`" + `]+)))?`)
	tokenRe = regexp.MustCompile(`\S+`)
)

type renamer struct {
	opts    Options
	m       *ObfuscationMap
	counter int64
}

// Obfuscate renames every class token and id in doc. Start tags are visited in document
// order and attributes in attribute order; the first occurrence of a distinct identifier
// assigns the next name from a counter shared by both attribute kinds, and every later
// occurrence reuses it. Only attribute values change; all other bytes are preserved.
func Obfuscate(doc string, opts Options) (string, *ObfuscationMap) {
	r := &renamer{opts: opts.withDefaults(), m: newObfuscationMap()}

	var out strings.Builder
	out.Grow(len(doc))
	last := 0
	for _, loc := range tagRe.FindAllStringSubmatchIndex(doc, -1) {
		// loc[2] < 0: a comment.
		if loc[2] < 0 || loc[4] < 0 {
			continue
		}
		out.WriteString(doc[last:loc[4]])
		out.WriteString(r.rewriteAttributes(doc[loc[4]:loc[5]]))
		last = loc[5]
	}
	out.WriteString(doc[last:])
	return out.String(), r.m
}

func (r *renamer) rewriteAttributes(attrs string) string {
	var out strings.Builder
	last := 0
	for _, m := range attrRe.FindAllStringSubmatchIndex(attrs, -1) {
		name := attrs[m[2]:m[3]]
		vs, ve := valueSpan(m)
		if vs < 0 {
			continue
		}
		var rewritten string
		switch {
		case strings.EqualFold(name, r.opts.ClassAttribute):
			rewritten = r.rewriteClassList(attrs[vs:ve])
		case strings.EqualFold(name, r.opts.IDAttribute):
			rewritten = r.rewriteID(attrs[vs:ve])
		default:
			continue
		}
		out.WriteString(attrs[last:vs])
		out.WriteString(rewritten)
		last = ve
	}
	if last == 0 {
		return attrs
	}
	out.WriteString(attrs[last:])
	return out.String()
}

// valueSpan returns the byte span of whichever value alternative matched, or -1.
func valueSpan(m []int) (int, int) {
	for g := 2; g <= 4; g++ {
		if m[2*g] >= 0 {
			return m[2*g], m[2*g+1]
		}
	}
	return -1, -1
}

func (r *renamer) rewriteClassList(value string) string {
	var out strings.Builder
	last := 0
	for _, t := range tokenRe.FindAllStringIndex(value, -1) {
		out.WriteString(value[last:t[0]])
		out.WriteString(r.rename(value[t[0]:t[1]], classPrefix))
		last = t[1]
	}
	out.WriteString(value[last:])
	return out.String()
}

func (r *renamer) rewriteID(value string) string {
	token := strings.TrimSpace(value)
	if token == "" || strings.ContainsAny(token, " \t\n\r\f") {
		return value
	}
	i := strings.Index(value, token)
	return value[:i] + r.rename(token, idPrefix) + value[i+len(token):]
}

func (r *renamer) rename(token, prefix string) string {
	if !r.matches(token) {
		return token
	}
	if name, ok := r.m.Lookup(token); ok {
		return name
	}
	name := prefix + strconv.FormatInt(r.counter, 36)
	r.counter++
	r.m.add(token, name)
	return name
}

func (r *renamer) matches(token string) bool {
	loc := r.opts.IdentifierPattern.FindStringIndex(token)
	return loc != nil && loc[0] == 0 && loc[1] == len(token)
}
