package docs

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ids(docs []*Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestSet_Remove(t *testing.T) {
	t.Parallel()

	s := NewSet(
		&Document{ID: "a", DocType: TypeClass},
		&Document{ID: "b", DocType: TypeMember},
		&Document{ID: "c", DocType: TypeClass},
	)
	removed := s.Remove(func(d *Document) bool { return d.DocType == TypeMember })

	if diff := cmp.Diff([]string{"b"}, ids(removed)); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "c"}, ids(s.All())); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}
	if _, ok := s.Get("b"); ok {
		t.Error("removed doc still indexed")
	}
}

func TestSet_Aliases(t *testing.T) {
	t.Parallel()

	mod := &Document{ID: "common/cache/CacheModule", Name: "CacheModule"}
	other := &Document{ID: "core/Other", Name: "Other"}
	s := NewSet(mod, other)

	for _, alias := range []string{"CacheModule", "cache/CacheModule", "common/cache/CacheModule"} {
		got := s.Aliases(alias)
		if len(got) != 1 || got[0] != mod {
			t.Errorf("Aliases(%q) = %v", alias, ids(got))
		}
	}
	if got := s.Aliases("heModule"); len(got) != 0 {
		t.Errorf("partial segment matched: %v", ids(got))
	}
	if got := s.Aliases(""); len(got) != 0 {
		t.Errorf("empty alias matched: %v", ids(got))
	}
}

func TestSortByID_Stable(t *testing.T) {
	t.Parallel()

	first := &Document{ID: "a", Name: "first"}
	second := &Document{ID: "a", Name: "second"}
	docs := []*Document{{ID: "b"}, first, {ID: "c"}, second}
	SortByID(docs)

	if diff := cmp.Diff([]string{"a", "a", "b", "c"}, ids(docs)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if docs[0] != first || docs[1] != second {
		t.Error("equal ids reordered")
	}
}

func TestDocType_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(TypeNestModule)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"nestmodule"` {
		t.Errorf("marshal = %s", data)
	}

	var got DocType
	if err := json.Unmarshal([]byte(`"type-alias"`), &got); err != nil {
		t.Fatal(err)
	}
	if got != TypeTypeAlias {
		t.Errorf("unmarshal = %v", got)
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &got); err == nil {
		t.Error("expected error for unknown doc type")
	}
}
