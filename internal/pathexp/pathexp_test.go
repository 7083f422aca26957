package pathexp

import (
	"reflect"
	"testing"
)

func TestCompile_Literal(t *testing.T) {
	p, err := Compile("users/items")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Literal() {
		t.Error("expected literal pattern")
	}

	if _, ok := p.Match("users/items"); !ok {
		t.Error("expected exact match")
	}
	if _, ok := p.Match("Users/Items"); !ok {
		t.Error("literal matching must be case-insensitive")
	}
	if _, ok := p.Match("users/items/5"); ok {
		t.Error("must not match longer paths")
	}
	if _, ok := p.Match("users"); ok {
		t.Error("must not match shorter paths")
	}
}

func TestCompile_BracePlaceholders(t *testing.T) {
	p, err := Compile("widgets/{id}/parts/{part}")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Vars(); !reflect.DeepEqual(got, []string{"id", "part"}) {
		t.Fatalf("expected [id part], got %v", got)
	}

	vars, ok := p.Match("widgets/5/parts/bolt")
	if !ok {
		t.Fatal("expected match")
	}
	if vars["id"] != "5" || vars["part"] != "bolt" {
		t.Errorf("unexpected captures: %v", vars)
	}
}

func TestCompile_ColonPlaceholdersBehaveIdentically(t *testing.T) {
	brace := MustCompile("widgets/{id}/parts/{part}")
	colon := MustCompile("widgets/:id/parts/:part")

	for _, path := range []string{"widgets/5/parts/bolt", "widgets/a-b/parts/x", "widgets//parts/x", "widgets/5/parts"} {
		bv, bok := brace.Match(path)
		cv, cok := colon.Match(path)
		if bok != cok || !reflect.DeepEqual(bv, cv) {
			t.Errorf("path %q: brace (%v,%v) != colon (%v,%v)", path, bv, bok, cv, cok)
		}
	}
}

func TestCompile_CapturesAreSegmentBounded(t *testing.T) {
	p := MustCompile("files/{name}")
	if _, ok := p.Match("files/a/b"); ok {
		t.Error("capture must not cross a slash")
	}
	vars, ok := p.Match("files/report.pdf")
	if !ok || vars["name"] != "report.pdf" {
		t.Errorf("expected capture within segment, got %v ok=%v", vars, ok)
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, tpl := range []string{"a/{id", "a/id}", "a/{}", "a/{x}/{x}", "a/:"} {
		if _, err := Compile(tpl); err == nil {
			t.Errorf("expected error for %q", tpl)
		}
	}
}

func TestMatch_EmptyPattern(t *testing.T) {
	p := MustCompile("")
	if _, ok := p.Match(""); !ok {
		t.Error("empty pattern must match the resource root")
	}
	if _, ok := p.Match("x"); ok {
		t.Error("empty pattern must not match non-empty paths")
	}
}

func TestCompile_MixedSyntax(t *testing.T) {
	p := MustCompile("v/{a}/x/:b/y")
	vars, ok := p.Match("v/1/x/2/y")
	if !ok {
		t.Fatal("expected match")
	}
	if vars["a"] != "1" || vars["b"] != "2" {
		t.Errorf("unexpected captures: %v", vars)
	}
	if got := p.Vars(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}
