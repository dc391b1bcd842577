package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/set-night/seyedbot/internal/domain"
)

// DraftFields is the shared body of every draft variant.
type DraftFields struct {
	Title       string
	Description string
	Cover       *domain.Media
	Items       []domain.PendingItem
}

func (f *DraftFields) Fields() *DraftFields { return f }

// Draft is an in-progress content record owned by one session.
type Draft interface {
	Kind() domain.ContentKind
	Fields() *DraftFields
}

type WebinarDraft struct{ DraftFields }

type LessonDraft struct{ DraftFields }

type CaseStudyDraft struct{ DraftFields }

func (*WebinarDraft) Kind() domain.ContentKind   { return domain.KindWebinar }
func (*LessonDraft) Kind() domain.ContentKind    { return domain.KindLesson }
func (*CaseStudyDraft) Kind() domain.ContentKind { return domain.KindCaseStudy }

// Accumulator builds drafts step by step and commits them atomically.
type Accumulator struct {
	store ContentStore
	rec   Recorder
}

func NewAccumulator(store ContentStore, rec Recorder) *Accumulator {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Accumulator{store: store, rec: rec}
}

func (a *Accumulator) Begin(kind domain.ContentKind) Draft {
	switch kind {
	case domain.KindWebinar:
		return &WebinarDraft{}
	case domain.KindLesson:
		return &LessonDraft{}
	case domain.KindCaseStudy:
		return &CaseStudyDraft{}
	}
	return nil
}

// SetText sets the title or description. Empty values are rejected.
func (a *Accumulator) SetText(d Draft, field domain.DraftField, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return &domain.IncompleteDraftError{Missing: field}
	}
	switch field {
	case domain.FieldTitle:
		d.Fields().Title = value
	case domain.FieldDescription:
		d.Fields().Description = value
	default:
		return fmt.Errorf("set draft field %s: not a text field", field)
	}
	return nil
}

func (a *Accumulator) SetCover(d Draft, m domain.Media) {
	d.Fields().Cover = &m
}

// AppendItem records m at the next position and returns that position.
func (a *Accumulator) AppendItem(d Draft, m domain.Media) int {
	f := d.Fields()
	order := len(f.Items)
	f.Items = append(f.Items, domain.PendingItem{Media: m, Order: order})
	return order
}

// Missing returns the first required field that is still empty.
func (a *Accumulator) Missing(d Draft) (domain.DraftField, bool) {
	f := d.Fields()
	switch {
	case f.Title == "":
		return domain.FieldTitle, true
	case f.Description == "":
		return domain.FieldDescription, true
	}
	return "", false
}

// Commit persists the draft as a record of kind together with its items.
// An incomplete draft is left untouched and an IncompleteDraftError returned.
func (a *Accumulator) Commit(ctx context.Context, kind domain.ContentKind, d Draft) (int64, error) {
	if d == nil {
		return 0, &domain.IncompleteDraftError{Missing: domain.FieldTitle}
	}
	if d.Kind() != kind {
		return 0, fmt.Errorf("commit %s draft as %s", d.Kind(), kind)
	}
	if field, missing := a.Missing(d); missing {
		return 0, &domain.IncompleteDraftError{Missing: field}
	}

	f := d.Fields()
	c := domain.NewContent{Title: f.Title, Description: f.Description}
	if f.Cover != nil {
		ref := f.Cover.FileRef
		c.CoverRef = &ref
	}
	id, err := a.store.Create(ctx, kind, c, f.Items)
	if err != nil {
		return 0, fmt.Errorf("commit %s draft: %w", kind, err)
	}
	a.rec.DraftCommitted(kind)
	return id, nil
}
