package intern

import (
	"strings"
	"testing"

	"github.com/matzehuels/tileview/pkg/tilecache"
)

func TestBuild_Ledger(t *testing.T) {
	cats := []tilecache.InternCategory{{
		Name: "clip",
		Batches: []tilecache.InternBatch{
			{Insertions: []tilecache.InternInsert{
				{UID: 1, Value: "a"},
				{UID: 2, Value: map[string]int{"radius": 4}},
			}},
			{Removals: []tilecache.ItemUID{1}},
		},
	}}

	doc := Build(cats, "")

	if n := strings.Count(doc, `class="intern insert"`); n != 2 {
		t.Errorf("insert lines = %d, want 2", n)
	}
	if n := strings.Count(doc, `class="intern remove"`); n != 1 {
		t.Errorf("remove lines = %d, want 1", n)
	}

	order := []string{
		`<div class="subheader">clip</div>`,
		`<div class="intern insert">1: a</div>`,
		`<div class="intern insert">2: map[radius:4]</div>`,
		`<div class="intern remove">1</div>`,
	}
	pos := 0
	for _, want := range order {
		i := strings.Index(doc[pos:], want)
		if i < 0 {
			t.Fatalf("missing or out of order: %q\n%s", want, doc)
		}
		pos += i + len(want)
	}
}

func TestBuild_Shell(t *testing.T) {
	report := `<div class="header">Invalidation</div>` + "\n"
	doc := Build([]tilecache.InternCategory{{Name: "image"}}, report)

	for _, want := range []string{
		"<!DOCTYPE html>",
		`href="tilecache_base.css"`,
		`href="tilecache.css"`,
		`<div id="container">`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	r := strings.Index(doc, report)
	h := strings.Index(doc, `<div class="header">Interning</div>`)
	c := strings.Index(doc, `<div class="subheader">image</div>`)
	if r < 0 || h < 0 || c < 0 {
		t.Fatalf("report, Interning header or category missing:\n%s", doc)
	}
	if r > h || h > c {
		t.Error("want report, then Interning header, then categories")
	}
}

func TestBuild_InterningHeaderWithoutCategories(t *testing.T) {
	doc := Build(nil, "")
	if n := strings.Count(doc, `<div class="header">Interning</div>`); n != 1 {
		t.Errorf("Interning headers = %d, want 1", n)
	}
	if strings.Contains(Ledger(nil), "Interning") {
		t.Error("Ledger should not carry the document header")
	}
}

func TestBuild_Escapes(t *testing.T) {
	cats := []tilecache.InternCategory{{
		Name: "<font>",
		Batches: []tilecache.InternBatch{{
			Insertions: []tilecache.InternInsert{{UID: 3, Value: "<b>&"}},
		}},
	}}

	doc := Build(cats, "")
	if strings.Contains(doc, "<font>") || strings.Contains(doc, "<b>") {
		t.Errorf("values should be escaped:\n%s", doc)
	}
	if !strings.Contains(doc, "3: &lt;b&gt;&amp;") {
		t.Errorf("escaped value missing:\n%s", doc)
	}
}

func TestLedger_CategoryOrder(t *testing.T) {
	tests := []struct {
		name string
		cats []string
	}{
		{"empty", nil},
		{"single", []string{"prim"}},
		{"supplied order", []string{"text_run", "clip", "image"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cats []tilecache.InternCategory
			for _, n := range tt.cats {
				cats = append(cats, tilecache.InternCategory{Name: n})
			}
			out := Ledger(cats)
			if got := strings.Count(out, "subheader"); got != len(tt.cats) {
				t.Fatalf("subheaders = %d, want %d", got, len(tt.cats))
			}
			last := -1
			for _, n := range tt.cats {
				i := strings.Index(out, ">"+n+"<")
				if i <= last {
					t.Errorf("category %q out of order", n)
				}
				last = i
			}
		})
	}
}
