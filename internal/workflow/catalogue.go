package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/set-night/seyedbot/internal/domain"
)

// MenuEntry is one rendered catalogue row.
type MenuEntry struct {
	Label string
	ID    int64
}

// Catalogue renders content lists as menus and resolves picks back to records.
type Catalogue struct {
	store ContentStore
}

func NewCatalogue(store ContentStore) *Catalogue {
	return &Catalogue{store: store}
}

// BuildMenu lists every record of kind and returns a fresh selection map
// for the labels shown.
func (c *Catalogue) BuildMenu(ctx context.Context, kind domain.ContentKind) ([]MenuEntry, *SelectionMap, error) {
	records, err := c.store.List(ctx, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s menu: %w", kind, err)
	}
	entries := make([]MenuEntry, 0, len(records))
	sel := NewSelectionMap(kind)
	for _, r := range records {
		entries = append(entries, MenuEntry{Label: r.Title, ID: r.ID})
		sel.Put(r.Title, r.ID)
	}
	return entries, sel, nil
}

// Resolve maps a picked label to its record. A label that is not on the menu
// returns ok=false; a record deleted since the menu was built returns a
// StaleSelectionError and the label is forgotten.
func (c *Catalogue) Resolve(ctx context.Context, sel *SelectionMap, label string) (*domain.ContentRecord, bool, error) {
	id, ok := sel.Lookup(label)
	if !ok {
		return nil, false, nil
	}
	rec, err := c.store.Get(ctx, sel.Kind, id)
	if errors.Is(err, domain.ErrContentNotFound) {
		sel.Forget(label)
		return nil, true, &domain.StaleSelectionError{Kind: sel.Kind, ID: id}
	}
	if err != nil {
		return nil, true, fmt.Errorf("resolve %s %q: %w", sel.Kind, label, err)
	}
	return rec, true, nil
}

// Open loads a record and its items in order.
func (c *Catalogue) Open(ctx context.Context, kind domain.ContentKind, id int64) (*domain.ContentRecord, []domain.ContentItem, error) {
	rec, err := c.store.Get(ctx, kind, id)
	if errors.Is(err, domain.ErrContentNotFound) {
		return nil, nil, &domain.StaleSelectionError{Kind: kind, ID: id}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s %d: %w", kind, id, err)
	}
	items, err := c.store.Items(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list items of %s %d: %w", kind, id, err)
	}
	return rec, items, nil
}
