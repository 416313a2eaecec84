package docs

import (
	"sort"
	"strings"
)

// Set is the document collection handed from stage to stage. It keeps
// insertion order and an id index; every stage owns it for the duration of
// its call.
type Set struct {
	docs []*Document
	byID map[string]*Document
}

// NewSet builds a Set from docs, preserving their order.
func NewSet(docs ...*Document) *Set {
	s := &Set{byID: make(map[string]*Document, len(docs))}
	for _, d := range docs {
		s.Add(d)
	}
	return s
}

// Add appends d to the set.
func (s *Set) Add(d *Document) {
	s.docs = append(s.docs, d)
	if d.ID != "" {
		s.byID[d.ID] = d
	}
}

// Get returns the document with the given id.
func (s *Set) Get(id string) (*Document, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// All returns the documents in order. The slice must not be modified.
func (s *Set) All() []*Document {
	return s.docs
}

// Len returns the number of documents.
func (s *Set) Len() int {
	return len(s.docs)
}

// Remove drops every document for which drop returns true and returns the
// removed documents in their original order.
func (s *Set) Remove(drop func(*Document) bool) []*Document {
	var removed []*Document
	kept := s.docs[:0]
	for _, d := range s.docs {
		if drop(d) {
			removed = append(removed, d)
			if s.byID[d.ID] == d {
				delete(s.byID, d.ID)
			}
			continue
		}
		kept = append(kept, d)
	}
	for i := len(kept); i < len(s.docs); i++ {
		s.docs[i] = nil
	}
	s.docs = kept
	return removed
}

// OfType returns the documents with the given type, in order.
func (s *Set) OfType(t DocType) []*Document {
	var out []*Document
	for _, d := range s.docs {
		if d.DocType == t {
			out = append(out, d)
		}
	}
	return out
}

// Aliases returns the documents known by alias. A document is known by its
// id, its name, and every trailing `/`-separated suffix of its id.
func (s *Set) Aliases(alias string) []*Document {
	var out []*Document
	for _, d := range s.docs {
		if hasAlias(d, alias) {
			out = append(out, d)
		}
	}
	return out
}

func hasAlias(d *Document, alias string) bool {
	if alias == "" {
		return false
	}
	if d.ID == alias || d.Name == alias {
		return true
	}
	return strings.HasSuffix(d.ID, "/"+alias)
}

// SortByID sorts docs in place by id, keeping the input order of equal ids.
func SortByID(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

// Filter returns the docs for which keep returns true, in order.
func Filter(docs []*Document, keep func(*Document) bool) []*Document {
	var out []*Document
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
