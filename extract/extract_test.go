package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restconv/restconv"
)

func extractWidgets(t *testing.T) *ServiceInfo {
	t.Helper()
	services, err := Extract("./testdata/widgets", []string{"Widgets"}, Options{})
	require.NoError(t, err)
	require.Len(t, services, 1)
	return services[0]
}

func TestExtract_TypeAnnotations(t *testing.T) {
	svc := extractWidgets(t)

	assert.Equal(t, "Widgets", svc.Name)
	assert.Equal(t, "inventory/widgets", svc.Prefix, "@prefix overrides the lowercased type name")
	assert.Contains(t, svc.Doc, "manages the widget inventory")
	assert.NotContains(t, svc.Doc, "@prefix", "annotation lines leave the description")
}

func TestExtract_Methods(t *testing.T) {
	svc := extractWidgets(t)

	names := make([]string, len(svc.Methods))
	for i, m := range svc.Methods {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"Index", "GetItem", "GetSearch", "GetExport", "PostItem", "purge"}, names,
		"source order kept, underscore methods skipped")
}

func TestExtract_AccessSignals(t *testing.T) {
	svc := extractWidgets(t)
	byName := make(map[string]MethodInfo)
	for _, m := range svc.Methods {
		byName[m.Name] = m
	}

	assert.False(t, byName["Index"].Protected)
	assert.True(t, byName["GetItem"].Hybrid)
	assert.True(t, byName["PostItem"].Protected)
	assert.True(t, byName["purge"].Restricted, "unexported methods carry restricted visibility")
	assert.False(t, byName["PostItem"].Restricted)
}

func TestExtract_Params(t *testing.T) {
	svc := extractWidgets(t)
	byName := make(map[string]MethodInfo)
	for _, m := range svc.Methods {
		byName[m.Name] = m
	}

	// Leading context parameters never become routable params.
	assert.Empty(t, byName["Index"].Params)

	item := byName["GetItem"].Params
	require.Len(t, item, 1)
	assert.Equal(t, "id", item[0].Name)
	assert.Equal(t, restconv.KindPrimitive, item[0].Kind)
	assert.Equal(t, "min=1", item[0].Validate)
	assert.Nil(t, item[0].Default, "no @param default means required")

	search := byName["GetSearch"].Params
	require.Len(t, search, 2)
	assert.Equal(t, restconv.KindComposite, search[0].Kind)
	assert.Equal(t, "Filter", search[0].Type)
	assert.Equal(t, 25, search[1].Default, "integral JSON defaults normalize to int")

	post := byName["PostItem"].Params
	require.Len(t, post, 2)
	assert.Equal(t, restconv.KindArray, post[1].Kind)

	// Quoted attribute values may contain spaces.
	export := byName["GetExport"].Params
	require.Len(t, export, 2)
	assert.Equal(t, "full", export[1].Default)
	assert.Equal(t, "oneof=full brief", export[1].Validate)
}

func TestExtract_Overrides(t *testing.T) {
	svc := extractWidgets(t)
	var post MethodInfo
	for _, m := range svc.Methods {
		if m.Name == "PostItem" {
			post = m
		}
	}

	// The malformed "@url BOGUS nowhere" line is dropped; the valid
	// declaration survives.
	require.Len(t, post.Overrides, 1)
	assert.Equal(t, restconv.RouteOverride{Verb: "POST", Path: "items"}, post.Overrides[0])

	// Unrecognized but well-formed annotations land in Meta.
	assert.Equal(t, "write", post.Meta["audit"])
}

func TestExtract_UnknownType(t *testing.T) {
	_, err := Extract("./testdata/widgets", []string{"Gadgets"}, Options{})
	assert.ErrorContains(t, err, "Gadgets")
}

func TestDescriptor(t *testing.T) {
	svc := extractWidgets(t)

	desc := svc.Descriptor(map[string]restconv.HandlerFunc{
		"GetItem": func(ctx *restconv.Context, args []any) (any, error) {
			return args[0], nil
		},
	})

	assert.Equal(t, "inventory/widgets", desc.Prefix())
	require.Len(t, desc.Methods(), 6)

	app := restconv.NewApp(restconv.DefaultConfig()).AddService(desc)
	require.NoError(t, app.Compile())

	var patterns []string
	for _, e := range app.Routes().Entries("GET") {
		patterns = append(patterns, e.Pattern)
	}
	assert.Contains(t, patterns, "inventory/widgets/item/{id}")

	// Unbound methods compile but answer with a not-implemented error.
	var m *restconv.Method
	for _, cand := range desc.Methods() {
		if cand.Name() == "purge" {
			m = cand
		}
	}
	require.NotNil(t, m)
	assert.Equal(t, restconv.AccessPrivileged, m.Access())
}
