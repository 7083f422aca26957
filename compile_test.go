package restconv

import (
	"bytes"
	"testing"
)

func noopHandler(_ *Context, _ []any) (any, error) { return nil, nil }

func compileOne(t *testing.T, cfg Config, svc *Service) *RouteTable {
	t.Helper()
	table := NewRouteTable()
	c := &compiler{cfg: cfg}
	if err := c.compileService(table, svc); err != nil {
		t.Fatalf("compile: %v", err)
	}
	return table
}

func routeStrings(t *RouteTable, verb string) []string {
	var out []string
	for _, e := range t.Entries(verb) {
		out = append(out, e.Pattern)
	}
	return out
}

func TestSplitVerb(t *testing.T) {
	tests := []struct {
		method string
		verb   string
		base   string
	}{
		{"getIndex", "GET", ""},
		{"getItem", "GET", "item"},
		{"postValidate", "POST", "validate"},
		{"putItem", "PUT", "item"},
		{"patchItem", "PATCH", "item"},
		{"deleteItem", "DELETE", "item"},
		{"headItem", "HEAD", "item"},
		{"optionsItem", "OPTIONS", "item"},
		{"index", "GET", ""},
		{"search", "GET", "search"},
		{"Get", "GET", ""},
	}
	for _, tt := range tests {
		verb, base := splitVerb(tt.method)
		if verb != tt.verb || base != tt.base {
			t.Errorf("splitVerb(%q) = %q, %q; want %q, %q", tt.method, verb, base, tt.verb, tt.base)
		}
	}
}

func TestAutoRoute_IndexMapsToResourceRoot(t *testing.T) {
	svc := NewService("Users").WithPrefix("users/")
	svc.Method("getIndex", noopHandler)

	table := compileOne(t, DefaultConfig(), svc)

	got := routeStrings(table, "GET")
	if len(got) != 1 || got[0] != "users" {
		t.Fatalf("expected [users], got %v", got)
	}
}

func TestAutoRoute_AmbiguityAvoidance(t *testing.T) {
	// getItem(id, format="full") must produce exactly one route
	// GET items/item/{id}, never .../item/{id}/{format}.
	svc := NewService("Items").WithPrefix("items/")
	svc.Method("getItem", noopHandler).
		Param(Param{Name: "id"}).
		Param(Param{Name: "format", Default: "full"})

	table := compileOne(t, DefaultConfig(), svc)

	got := routeStrings(table, "GET")
	if len(got) != 1 {
		t.Fatalf("expected exactly one route, got %v", got)
	}
	if got[0] != "items/item/{id}" {
		t.Errorf("expected items/item/{id}, got %s", got[0])
	}
}

func TestAutoRoute_AmbiguityAvoidanceDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AvoidAmbiguity = false

	svc := NewService("Items").WithPrefix("items/")
	svc.Method("getItem", noopHandler).
		Param(Param{Name: "id"}).
		Param(Param{Name: "format", Default: "full"})

	table := compileOne(t, cfg, svc)

	want := []string{"items/item", "items/item/{id}", "items/item/{id}/{format}"}
	got := routeStrings(table, "GET")
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("route %d: expected %s, got %s (shortest prefix must come first)", i, want[i], got[i])
		}
	}
}

func TestAutoRoute_StopsAtNonPrimitive(t *testing.T) {
	svc := NewService("Orders").WithPrefix("orders/")
	svc.Method("getSearch", noopHandler).
		Param(Param{Name: "filter", Kind: KindComposite, Type: "Filter"}).
		Param(Param{Name: "page", Default: 1})

	table := compileOne(t, DefaultConfig(), svc)

	got := routeStrings(table, "GET")
	if len(got) != 1 || got[0] != "orders/search" {
		t.Fatalf("expected [orders/search], got %v", got)
	}
}

func TestAutoRoute_SkipsRequestDataParam(t *testing.T) {
	svc := NewService("Widgets").WithPrefix("widgets/")
	svc.Method("getAudit", noopHandler).
		Param(Param{Name: RequestDataParam}).
		Param(Param{Name: "id"})

	table := compileOne(t, DefaultConfig(), svc)

	got := routeStrings(table, "GET")
	if len(got) != 1 || got[0] != "widgets/audit/{id}" {
		t.Fatalf("expected [widgets/audit/{id}], got %v", got)
	}
}

func TestAutoRoute_BodyVerbsTakeNoSegments(t *testing.T) {
	svc := NewService("Users").WithPrefix("users/")
	svc.Method("postValidate", noopHandler).
		Param(Param{Name: "token"})
	svc.Method("deleteItem", noopHandler).
		Param(Param{Name: "id"})

	table := compileOne(t, DefaultConfig(), svc)

	// POST parameters arrive in the body, so no {token} segment.
	if got := routeStrings(table, "POST"); len(got) != 1 || got[0] != "users/validate" {
		t.Errorf("expected [users/validate], got %v", got)
	}
	// DELETE has no body, so the identifier stays in the URL.
	if got := routeStrings(table, "DELETE"); len(got) != 1 || got[0] != "users/item/{id}" {
		t.Errorf("expected [users/item/{id}], got %v", got)
	}
}

func TestManualOverrides_DisableAutoRouting(t *testing.T) {
	svc := NewService("Auth").WithPrefix("auth/")
	svc.Method("postLogin", noopHandler).
		URL("POST", "sessions/").
		URL("PUT", "sessions/refresh")

	table := compileOne(t, DefaultConfig(), svc)

	if got := routeStrings(table, "POST"); len(got) != 1 || got[0] != "auth/sessions" {
		t.Errorf("expected trailing slash trimmed [auth/sessions], got %v", got)
	}
	if got := routeStrings(table, "PUT"); len(got) != 1 || got[0] != "auth/sessions/refresh" {
		t.Errorf("expected [auth/sessions/refresh], got %v", got)
	}
}

func TestHiddenMethodsNeverRouted(t *testing.T) {
	svc := NewService("Users").WithPrefix("users/")
	svc.Method("_internal", noopHandler)
	svc.Method("getIndex", noopHandler)

	table := compileOne(t, DefaultConfig(), svc)

	if table.Len() != 1 {
		t.Fatalf("expected 1 route, got %d", table.Len())
	}
}

func TestAutoRoutingDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoRouting = false

	svc := NewService("Users").WithPrefix("users/")
	svc.Method("getIndex", noopHandler)
	svc.Method("postValidate", noopHandler).URL("POST", "validate")

	table := compileOne(t, cfg, svc)

	// Only the manual route survives.
	if table.Len() != 1 {
		t.Fatalf("expected 1 route, got %d", table.Len())
	}
	if got := routeStrings(table, "POST"); len(got) != 1 || got[0] != "users/validate" {
		t.Errorf("expected [users/validate], got %v", got)
	}
}

func TestDuplicatePatternDropped(t *testing.T) {
	svc := NewService("Users").WithPrefix("users/")
	svc.Method("getIndex", noopHandler)
	svc.Method("index", noopHandler) // derives the same GET users

	table := compileOne(t, DefaultConfig(), svc)

	got := routeStrings(table, "GET")
	if len(got) != 1 {
		t.Fatalf("expected duplicate dropped, got %v", got)
	}
	if e := table.Entries("GET")[0]; e.Method().Name() != "getIndex" {
		t.Errorf("expected first registration kept, got %s", e.Method().Name())
	}
}

func TestAccessLevelEscalation(t *testing.T) {
	svc := NewService("Users").WithPrefix("users/")
	m := svc.Method("postValidate", noopHandler).Hybrid().Restricted()

	// Restricted visibility outranks the hybrid annotation.
	if got := m.Access(); got != AccessPrivileged {
		t.Fatalf("expected privileged, got %v", got)
	}

	levels := []struct {
		setup func(*Method) *Method
		want  AccessLevel
	}{
		{func(m *Method) *Method { return m }, AccessPublic},
		{func(m *Method) *Method { return m.Hybrid() }, AccessHybrid},
		{func(m *Method) *Method { return m.Protected() }, AccessProtected},
		{func(m *Method) *Method { return m.Protected().Hybrid() }, AccessProtected},
		{func(m *Method) *Method { return m.Restricted().Protected() }, AccessPrivileged},
	}
	for i, tt := range levels {
		m := tt.setup(&Method{name: "m"})
		if got := m.Access(); got != tt.want {
			t.Errorf("case %d: expected %v, got %v", i, tt.want, got)
		}
	}
}

func TestCompileDeterminism(t *testing.T) {
	build := func() *RouteTable {
		users := NewService("Users").WithPrefix("users/")
		users.Method("getIndex", noopHandler)
		users.Method("getItem", noopHandler).
			Param(Param{Name: "id"}).
			Param(Param{Name: "format", Default: "full"})
		users.Method("postValidate", noopHandler).Restricted().
			Param(Param{Name: "token"})
		return compileOne(t, DefaultConfig(), users)
	}

	a, err := encodeTable(build())
	if err != nil {
		t.Fatal(err)
	}
	b, err := encodeTable(build())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("compiling identical descriptors twice must yield byte-identical tables:\n%s\n---\n%s", a, b)
	}
}

func TestEndToEndScenario_UsersService(t *testing.T) {
	users := NewService("Users").WithPrefix("users/")
	users.Method("getIndex", noopHandler)
	users.Method("postValidate", noopHandler).Restricted().
		Param(Param{Name: "token"})

	table := compileOne(t, DefaultConfig(), users)

	if got := routeStrings(table, "GET"); len(got) != 1 || got[0] != "users" {
		t.Errorf("expected GET users, got %v", got)
	}
	if got := routeStrings(table, "POST"); len(got) != 1 || got[0] != "users/validate" {
		t.Errorf("expected POST users/validate, got %v", got)
	}

	post := table.Entries("POST")[0]
	if post.Method().Access() != AccessPrivileged {
		t.Errorf("expected privileged access, got %v", post.Method().Access())
	}
	if !post.Method().Access().RequiresAuth() {
		t.Error("privileged method must require authentication")
	}
}
