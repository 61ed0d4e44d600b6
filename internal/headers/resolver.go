// Package headers maps the header row of a third-party table onto the canonical schema.
package headers

import (
	"errors"
	"sort"
	"strings"

	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/internal/normalize"
)

// ErrUnusableHeaders means no anchor field was found; callers fall back to Positional.
var ErrUnusableHeaders = errors.New("headers not usable")

// Mapping is canonical field -> zero-based column index.
type Mapping map[models.Field]int

// Index returns the column of f, or -1 when f is unmapped.
func (m Mapping) Index(f models.Field) int {
	if i, ok := m[f]; ok {
		return i
	}
	return -1
}

type candidate struct {
	field models.Field
	key   string
}

// Resolver is stateless after construction and safe for concurrent use.
type Resolver struct {
	version    string
	exact      map[models.Field][]string
	candidates []candidate
}

func NewResolver(schema Schema) *Resolver {
	r := &Resolver{
		version: schema.Version,
		exact:   make(map[models.Field][]string, len(schema.Synonyms)),
	}

	for _, f := range models.Fields {
		seen := map[string]bool{}
		for _, alias := range schema.Synonyms[f] {
			key := normalize.Key(alias)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			r.exact[f] = append(r.exact[f], key)
			r.candidates = append(r.candidates, candidate{field: f, key: key})
		}
	}

	// longest alias first: "actualarrival" must win over "arrival".
	// Equal lengths keep field order, so the earlier field wins.
	sort.SliceStable(r.candidates, func(i, j int) bool {
		return len(r.candidates[i].key) > len(r.candidates[j].key)
	})

	return r
}

func (r *Resolver) Version() string {
	return r.version
}

// Resolve maps raw header cells to canonical fields. Exact key matches are taken
// first for every field, then header keys containing an alias that starts at a
// word ("ETA (hh:mm)" holds "eta", "Metadata" does not). A column is given to one
// field at most. When neither anchor field is found the partial mapping is
// returned with ErrUnusableHeaders.
func (r *Resolver) Resolve(rawHeaders []string) (Mapping, error) {
	keys := make([]string, len(rawHeaders))
	starts := make([][]int, len(rawHeaders))
	for i, h := range rawHeaders {
		keys[i], starts[i] = wordKey(h)
	}

	mapping := Mapping{}
	claimed := make(map[int]bool, len(keys))

	for _, f := range models.Fields {
		wanted := r.exact[f]
		for i, key := range keys {
			if key == "" || claimed[i] || !containsString(wanted, key) {
				continue
			}
			mapping[f] = i
			claimed[i] = true
			break
		}
	}

	for _, c := range r.candidates {
		if _, done := mapping[c.field]; done {
			continue
		}
		for i, key := range keys {
			if key == "" || claimed[i] || !containsAtWord(key, starts[i], c.key) {
				continue
			}
			mapping[c.field] = i
			claimed[i] = true
			break
		}
	}

	for _, anchor := range models.AnchorFields {
		if _, ok := mapping[anchor]; ok {
			return mapping, nil
		}
	}
	return mapping, ErrUnusableHeaders
}

// Positional is the fixed fallback mapping: the n-th data field is column n.
func Positional() Mapping {
	mapping := Mapping{}
	for i, f := range models.PositionalFields() {
		mapping[f] = i
	}
	return mapping
}

// wordKey returns the matching key of a header and the offsets in it where words begin.
func wordKey(header string) (string, []int) {
	words := normalize.Words(header)
	starts := make([]int, len(words))
	var b strings.Builder
	for i, w := range words {
		starts[i] = b.Len()
		b.WriteString(w)
	}
	return b.String(), starts
}

func containsAtWord(key string, starts []int, alias string) bool {
	for _, off := range starts {
		if strings.HasPrefix(key[off:], alias) {
			return true
		}
	}
	return false
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
