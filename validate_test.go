package restconv

import (
	"testing"
)

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		param Param
		want  any
	}{
		{"int", "42", Param{Name: "n", Default: 0}, 42},
		{"int64", "42", Param{Name: "n", Default: int64(0)}, int64(42)},
		{"float", "2.5", Param{Name: "n", Default: 0.0}, 2.5},
		{"bool", "true", Param{Name: "b", Default: false}, true},
		{"string stays", "hello", Param{Name: "s", Default: ""}, "hello"},
		{"unparseable stays", "abc", Param{Name: "n", Default: 0}, "abc"},
		{"no default stays", "42", Param{Name: "n"}, "42"},
		{"non-string stays", 3.14, Param{Name: "n", Default: 0}, 3.14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coerceValue(tt.value, tt.param); got != tt.want {
				t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

func TestDefaultValidator_TagApplied(t *testing.T) {
	v := defaultValidator{}

	got, err := v.Validate("5", Param{Name: "page", Default: 0, Validate: "min=1,max=10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5 {
		t.Errorf("expected coerced 5, got %v", got)
	}

	if _, err := v.Validate("99", Param{Name: "page", Default: 0, Validate: "max=10"}); err == nil {
		t.Error("expected validation failure for 99 > 10")
	}
}

func TestDefaultValidator_ErrorNamesParameter(t *testing.T) {
	v := defaultValidator{}
	_, err := v.Validate("", Param{Name: "email", Default: "", Validate: "email"})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	svcErr := DefaultErrorTransformer(err)
	if svcErr.Code != CodeInvalidArgument {
		t.Errorf("expected invalid_argument, got %s", svcErr.Code)
	}
}

func TestBindStruct(t *testing.T) {
	type searchRequest struct {
		Query string `schema:"q" validate:"required"`
		Page  int    `schema:"page" validate:"min=1"`
	}

	ctx := &Context{params: map[string]any{
		"q":      "widgets",
		"page":   "3",
		"extra":  "ignored",
		"absent": nil,
	}}

	var req searchRequest
	if err := ctx.BindStruct(&req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Query != "widgets" || req.Page != 3 {
		t.Errorf("unexpected decode: %+v", req)
	}
}

func TestBindStruct_ValidationFailure(t *testing.T) {
	type searchRequest struct {
		Query string `schema:"q" validate:"required"`
	}

	ctx := &Context{params: map[string]any{}}
	var req searchRequest
	if err := ctx.BindStruct(&req); err == nil {
		t.Error("expected required-field failure")
	}
}
