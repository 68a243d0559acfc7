// Package synonym maps normalized phrases to canonical symptoms.
package synonym

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync/atomic"

	"github.com/ppiankov/casewise/internal/normalize"
)

// Table maps a normalized phrase to a canonical symptom. It is immutable
// once built; use Merge or Enrich to derive a new one.
type Table struct {
	entries     map[string]string
	keys        []string
	words       map[string][]string
	fingerprint string
}

// NewTable normalizes keys and values. Entries that normalize to an empty
// key or value are dropped.
func NewTable(entries map[string]string) *Table {
	clean := make(map[string]string, len(entries))
	for k, v := range entries {
		nk, nv := normalize.Canonical(k), normalize.Canonical(v)
		if nk == "" || nv == "" {
			continue
		}
		clean[nk] = nv
	}
	return build(clean)
}

func build(entries map[string]string) *Table {
	t := &Table{
		entries: entries,
		keys:    make([]string, 0, len(entries)),
		words:   make(map[string][]string, len(entries)),
	}
	for k := range entries {
		t.keys = append(t.keys, k)
		t.words[k] = normalize.Dedupe(normalize.Words(k))
	}
	sort.Strings(t.keys)

	h := sha256.New()
	for _, k := range t.keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(entries[k]))
		h.Write([]byte{'\n'})
	}
	t.fingerprint = hex.EncodeToString(h.Sum(nil))
	return t
}

// Empty returns a table with no entries
func Empty() *Table {
	return build(map[string]string{})
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the canonical symptom for an exact key
func (t *Table) Lookup(key string) (string, bool) {
	v, ok := t.entries[key]
	return v, ok
}

// Keys returns the keys in sorted order
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Entries returns a copy of the mapping
func (t *Table) Entries() map[string]string {
	out := make(map[string]string, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Canonicals returns the distinct canonical symptoms in sorted order
func (t *Table) Canonicals() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range t.keys {
		v := t.entries[k]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Fingerprint is a sha256 over the sorted entries
func (t *Table) Fingerprint() string {
	return t.fingerprint
}

// Merge layers tables in order; a later table wins on key collision
func Merge(tables ...*Table) *Table {
	merged := make(map[string]string)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for k, v := range t.entries {
			merged[k] = v
		}
	}
	return build(merged)
}

// Holder publishes the current table. Store replaces it wholesale, so a
// reader sees either the old or the new table, never a mix.
type Holder struct {
	table      atomic.Pointer[Table]
	generation atomic.Uint64
}

// NewHolder creates a holder serving t
func NewHolder(t *Table) *Holder {
	if t == nil {
		t = Empty()
	}
	h := &Holder{}
	h.table.Store(t)
	return h
}

// Load returns the current table
func (h *Holder) Load() *Table {
	return h.table.Load()
}

// Store swaps in t and returns the new generation
func (h *Holder) Store(t *Table) uint64 {
	if t == nil {
		t = Empty()
	}
	h.table.Store(t)
	return h.generation.Add(1)
}

// Generation counts the swaps since creation
func (h *Holder) Generation() uint64 {
	return h.generation.Load()
}
