package workflow

import "github.com/set-night/seyedbot/internal/domain"

// SelectionMap maps the labels shown on a rendered menu back to record IDs.
// When two records share a label the one rendered last wins.
type SelectionMap struct {
	Kind   domain.ContentKind
	labels map[string]int64
}

func NewSelectionMap(kind domain.ContentKind) *SelectionMap {
	return &SelectionMap{Kind: kind, labels: make(map[string]int64)}
}

func (m *SelectionMap) Put(label string, id int64) {
	m.labels[label] = id
}

func (m *SelectionMap) Lookup(label string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	id, ok := m.labels[label]
	return id, ok
}

func (m *SelectionMap) Forget(label string) {
	delete(m.labels, label)
}

func (m *SelectionMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.labels)
}
