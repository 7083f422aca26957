// Package extract derives service descriptors from Go source code, as a
// build-time alternative to hand-written registration.
//
// Given a package pattern and a type name, Extract scans the type's
// methods and doc comments and produces a metadata-only ServiceInfo.
// Annotations are @-prefixed lines in doc comments:
//
//	// GetItem returns one item.
//	//
//	// @protected
//	// @param format default="full" validate="oneof=full brief"
//	func (s *Items) GetItem(id string, format string) ...
//
// Recognized annotations: @prefix (type doc), @protected, @hybrid,
// @url <VERB> <path> (repeatable), @param <name> [default=<json>]
// [validate=<tag>] [novalidate]. A malformed annotation is dropped with a
// warning; extraction of the rest of the method and class continues.
//
// Unexported methods are extracted as restricted-visibility operations
// (restconv.AccessPrivileged). Methods whose name begins with an
// underscore are skipped entirely and never routed.
package extract

import (
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/restconv/restconv"
)

// ServiceInfo is the extracted metadata for one service type.
type ServiceInfo struct {
	// Name is the type name.
	Name string
	// Prefix is the resource path prefix from the @prefix annotation,
	// defaulting to the lower-cased type name.
	Prefix string
	// Doc is the type's free-text description.
	Doc string
	// Methods are the routable methods in source order.
	Methods []MethodInfo
}

// MethodInfo is the extracted metadata for one method.
type MethodInfo struct {
	Name       string
	Doc        string
	Restricted bool
	Protected  bool
	Hybrid     bool
	Overrides  []restconv.RouteOverride
	Params     []ParamInfo
	// Meta holds unrecognized but well-formed "@key value" annotations.
	Meta map[string]any
}

// ParamInfo is the extracted metadata for one parameter.
type ParamInfo struct {
	Name string
	Kind restconv.ParamKind
	// Type is the composite type name, for composite kinds.
	Type string
	// Default comes from the @param annotation; nil means required.
	Default any
	// Validate is the validator tag from the @param annotation.
	Validate string
	// NoValidate disables validation for the parameter.
	NoValidate bool
}

// Options configures extraction.
type Options struct {
	// Dir is the working directory for package loading. Empty means the
	// current directory.
	Dir string
	// Logger receives warnings about dropped annotations.
	// slog.Default() when nil.
	Logger *slog.Logger
}

// Extract loads the package matching pattern and extracts the named
// service types. The pattern follows go command semantics ("." for the
// current directory, an import path, or a directory path).
func Extract(pattern string, typeNames []string, opts Options) ([]*ServiceInfo, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:  opts.Dir,
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching %q", pattern)
	}
	if len(pkgs) > 1 {
		return nil, fmt.Errorf("multiple packages found matching %q; specify a single package", pattern)
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkg.Errors[0])
	}

	var services []*ServiceInfo
	for _, name := range typeNames {
		svc, err := extractType(pkg, name, logger)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}

func extractType(pkg *packages.Package, typeName string, logger *slog.Logger) (*ServiceInfo, error) {
	svc := &ServiceInfo{
		Name:   typeName,
		Prefix: strings.ToLower(typeName),
	}
	found := false

	for _, f := range pkg.Syntax {
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, s := range d.Specs {
					ts, ok := s.(*ast.TypeSpec)
					if !ok || ts.Name.Name != typeName {
						continue
					}
					found = true
					doc := ts.Doc
					if doc == nil {
						doc = d.Doc
					}
					ann := parseAnnotations(doc, logger, pkg.Fset)
					svc.Doc = ann.text
					if p, ok := ann.values["prefix"]; ok {
						svc.Prefix = strings.Trim(fmt.Sprint(p), "/")
					}
				}
			case *ast.FuncDecl:
				if receiverName(d) != typeName {
					continue
				}
				if strings.HasPrefix(d.Name.Name, "_") {
					continue
				}
				svc.Methods = append(svc.Methods, extractMethod(d, logger, pkg.Fset))
			}
		}
	}

	if !found {
		return nil, fmt.Errorf("type %s not found in package %s", typeName, pkg.PkgPath)
	}
	return svc, nil
}

// extractMethod builds MethodInfo from the declaration and its doc
// comment. A malformed doc block never aborts extraction; bad annotation
// lines are dropped with the remainder of the metadata intact.
func extractMethod(d *ast.FuncDecl, logger *slog.Logger, fset *token.FileSet) MethodInfo {
	m := MethodInfo{
		Name:       d.Name.Name,
		Restricted: !d.Name.IsExported(),
	}

	ann := parseAnnotations(d.Doc, logger, fset)
	m.Doc = ann.text
	_, m.Protected = ann.values["protected"]
	_, m.Hybrid = ann.values["hybrid"]
	m.Overrides = ann.overrides
	if len(ann.extra) > 0 {
		m.Meta = ann.extra
	}

	for _, field := range signatureParams(d) {
		for _, name := range field.Names {
			p := ParamInfo{Name: name.Name}
			p.Kind, p.Type = classifyType(field.Type)
			if over, ok := ann.params[name.Name]; ok {
				p.Default = over.def
				p.Validate = over.validate
				p.NoValidate = over.noValidate
			}
			m.Params = append(m.Params, p)
		}
	}
	return m
}

// signatureParams returns the routable parameter fields of a method,
// skipping a leading context parameter when present.
func signatureParams(d *ast.FuncDecl) []*ast.Field {
	if d.Type.Params == nil {
		return nil
	}
	fields := d.Type.Params.List
	if len(fields) > 0 && isContextType(fields[0].Type) {
		if len(fields[0].Names) <= 1 {
			fields = fields[1:]
		}
	}
	return fields
}

// isContextType reports whether the expression names a context type
// (context.Context or a *Context of any package).
func isContextType(expr ast.Expr) bool {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch t := expr.(type) {
	case *ast.SelectorExpr:
		return t.Sel.Name == "Context"
	case *ast.Ident:
		return t.Name == "Context"
	}
	return false
}

// primitiveNames are the Go basic types treated as primitive for routing.
var primitiveNames = map[string]bool{
	"bool": true, "string": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "byte": true, "rune": true,
}

// classifyType maps an AST type expression to a routing kind. Only
// primitive parameters may become URL segments.
func classifyType(expr ast.Expr) (restconv.ParamKind, string) {
	switch t := expr.(type) {
	case *ast.Ident:
		if primitiveNames[t.Name] {
			return restconv.KindPrimitive, ""
		}
		return restconv.KindComposite, t.Name
	case *ast.ArrayType:
		return restconv.KindArray, ""
	case *ast.StarExpr:
		kind, name := classifyType(t.X)
		if kind == restconv.KindPrimitive {
			return restconv.KindComposite, ""
		}
		return kind, name
	case *ast.SelectorExpr:
		return restconv.KindComposite, t.Sel.Name
	case *ast.MapType:
		return restconv.KindComposite, ""
	default:
		return restconv.KindComposite, ""
	}
}

// receiverName returns the bare receiver type name of a method, or "".
func receiverName(d *ast.FuncDecl) string {
	if d.Recv == nil || len(d.Recv.List) == 0 {
		return ""
	}
	expr := d.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// Descriptor builds a registrable service from the extracted metadata,
// binding handlers by method name. Methods without a handler are bound to
// a not-implemented stub so the route table can still be compiled and
// inspected.
func (s *ServiceInfo) Descriptor(handlers map[string]restconv.HandlerFunc) *restconv.Service {
	svc := restconv.NewService(s.Name).WithPrefix(s.Prefix)
	for _, mi := range s.Methods {
		h := handlers[mi.Name]
		if h == nil {
			name := mi.Name
			h = func(*restconv.Context, []any) (any, error) {
				return nil, restconv.Errorf(restconv.CodeInternal, "no handler bound for %s", name)
			}
		}
		m := svc.Method(mi.Name, h).Describe(mi.Doc)
		if mi.Restricted {
			m.Restricted()
		}
		if mi.Protected {
			m.Protected()
		}
		if mi.Hybrid {
			m.Hybrid()
		}
		for _, o := range mi.Overrides {
			m.URL(o.Verb, o.Path)
		}
		for _, p := range mi.Params {
			m.Param(restconv.Param{
				Name:       p.Name,
				Kind:       p.Kind,
				Type:       p.Type,
				Default:    p.Default,
				Validate:   p.Validate,
				NoValidate: p.NoValidate,
			})
		}
		for k, v := range mi.Meta {
			m.Meta(k, v)
		}
	}
	return svc
}
