// Package widgets is a sample annotated service used by extraction tests.
package widgets

import "context"

// Filter narrows a listing by tag.
type Filter struct {
	Tag string
}

// Widgets manages the widget inventory.
//
// @prefix inventory/widgets
type Widgets struct{}

// Index lists all widgets.
func (w *Widgets) Index(ctx context.Context) ([]string, error) {
	return nil, nil
}

// GetItem returns one widget.
//
// @hybrid
// @param id validate="min=1"
func (w *Widgets) GetItem(ctx context.Context, id int) (string, error) {
	return "", nil
}

// GetSearch filters the inventory.
//
// @param limit default=25 validate="min=1,max=100"
func (w *Widgets) GetSearch(ctx context.Context, filter Filter, limit int) ([]string, error) {
	return nil, nil
}

// GetExport renders one widget in a chosen layout.
//
// @param layout default="full" validate="oneof=full brief"
func (w *Widgets) GetExport(ctx context.Context, id int, layout string) (string, error) {
	return "", nil
}

// PostItem creates a widget.
//
// @protected
// @url POST items
// @audit write
// @url BOGUS nowhere
func (w *Widgets) PostItem(ctx context.Context, name string, tags []string) (string, error) {
	return "", nil
}

// purge empties the inventory.
func (w *Widgets) purge(ctx context.Context) error {
	return nil
}

func (w *Widgets) _reindex() {}
