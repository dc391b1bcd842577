package workflow

import (
	"context"
	"errors"
	"html"
	"strconv"
	"strings"

	"github.com/set-night/seyedbot/internal/domain"
)

// contentFlow is the authoring workflow for one content kind. The three
// kinds share the same steps under their own callback prefix.
type contentFlow struct {
	e    *Engine
	kind domain.ContentKind
}

func (f *contentFlow) state(step Step) State {
	return ContentState(f.kind, step)
}

func (f *contentFlow) cb(action string) string {
	return string(f.kind) + ":" + action
}

func (f *contentFlow) register() {
	r := f.e.router
	menu := f.state(StepMenu)

	for _, step := range contentSteps {
		r.On(f.state(step), OnCallback(f.cb("menu")), f.cancelToMenu)
	}

	r.On(menu, OnCallback(f.cb("add")), f.beginDraft)
	r.On(menu, OnCallbackPrefix(f.cb("select:")), f.selectRecord)
	r.On(menu, OnCallback(f.cb("edit_title")), f.askEdit(StepEditTitle, txtSendTitle))
	r.On(menu, OnCallback(f.cb("edit_desc")), f.askEdit(StepEditDescription, txtSendDesc))
	r.On(menu, OnCallback(f.cb("edit_cover")), f.askEdit(StepEditCover, txtSendCover))
	r.On(menu, OnCallback(f.cb("remove_cover")), f.removeCover)
	r.On(menu, OnCallback(f.cb("delete")), f.deleteRecord)
	r.On(menu, OnCallback(f.cb("items")), f.showItems)
	r.On(menu, OnCallback(f.cb("back")), f.e.showPanel)

	r.On(f.state(StepAddTitle), OnText(), f.setTitle)
	r.On(f.state(StepAddDescription), OnText(), f.setDescription)

	r.On(f.state(StepAddCover), OnMedia(), f.setCover)
	r.On(f.state(StepAddCover), OnCallback(f.cb("skip_cover")), f.skipCover)

	r.On(f.state(StepAddContent), OnMedia(), f.appendItem)
	r.On(f.state(StepAddContent), OnCallback(f.cb("finish")), f.commit)
	r.On(f.state(StepAddContent), OnText(), f.remindItems)

	r.On(f.state(StepEditTitle), OnText(), f.editText(domain.FieldTitle))
	r.On(f.state(StepEditDescription), OnText(), f.editText(domain.FieldDescription))
	r.On(f.state(StepEditCover), OnMedia(), f.editCover)

	list := f.state(StepManageContentList)
	r.On(list, OnCallbackPrefix(f.cb("item:")), f.askReplaceItem)
	r.On(list, OnCallbackPrefix(f.cb("item_del:")), f.deleteItem)
	r.On(list, OnCallback(f.cb("item_add")), f.askNewItem)
	r.On(list, OnCallback(f.cb("open")), f.showRecord)

	r.On(f.state(StepAddContentItem), OnMedia(), f.addItem)
	r.On(f.state(StepAddContentItem), OnCallback(f.cb("items")), f.showItems)
	r.On(f.state(StepEditContentItem), OnMedia(), f.replaceItem)
	r.On(f.state(StepEditContentItem), OnCallback(f.cb("items")), f.showItems)
}

func (f *contentFlow) cancelMarkup() *Markup {
	return Inline(Row(CallbackButton(txtCancelButton, f.cb("menu"))))
}

func (f *contentFlow) renderMenu(ctx context.Context, s *Session, ev Event, status string) State {
	entries, _, err := f.e.catalogue.BuildMenu(ctx, f.kind)
	if err != nil {
		f.e.storageError(ctx, s, ev, "list content", err)
		return s.State
	}

	rows := [][]Button{Row(CallbackButton("➕ افزودن "+kindName(f.kind), f.cb("add")))}
	for _, en := range entries {
		rows = append(rows, Row(CallbackButton(truncateLabel(en.Label), f.cb("select:"+strconv.FormatInt(en.ID, 10)))))
	}
	rows = append(rows, Row(CallbackButton(txtBackButton, f.cb("back"))))

	text := contentMenuText(f.kind, len(entries))
	if status != "" {
		text = status + "\n\n" + text
	}
	f.e.respond(ctx, s, ev, text, Inline(rows...))
	return f.state(StepMenu)
}

func (f *contentFlow) cancelToMenu(ctx context.Context, s *Session, ev Event) State {
	s.DiscardDraft()
	s.SelectedItem = 0
	return f.renderMenu(ctx, s, ev, "")
}

func (f *contentFlow) selected(ctx context.Context, s *Session, ev Event) (int64, bool) {
	id, ok := s.Selected[f.kind]
	if !ok {
		f.e.reply(ctx, s, ev, txtSelectFirst)
	}
	return id, ok
}

// stale clears a selection whose record has gone and shows the menu again.
func (f *contentFlow) stale(ctx context.Context, s *Session, ev Event) State {
	delete(s.Selected, f.kind)
	s.SelectedItem = 0
	f.e.toast(ctx, s, ev, txtNoLongerThere)
	return f.renderMenu(ctx, s, ev, txtNoLongerThere)
}

func (f *contentFlow) renderDetail(ctx context.Context, s *Session, ev Event, id int64, status string) State {
	rec, items, err := f.e.catalogue.Open(ctx, f.kind, id)
	if isNotFound(err) {
		return f.stale(ctx, s, ev)
	}
	if err != nil {
		f.e.storageError(ctx, s, ev, "open content", err)
		return s.State
	}
	views, err := f.e.content.ViewCount(ctx, id)
	if err != nil {
		f.e.storageError(ctx, s, ev, "count views", err)
		return s.State
	}
	s.Selected[f.kind] = id

	rows := [][]Button{
		Row(CallbackButton("ویرایش عنوان ✏️", f.cb("edit_title")), CallbackButton("ویرایش توضیحات 📝", f.cb("edit_desc"))),
		Row(CallbackButton("ویرایش کاور 🖼", f.cb("edit_cover"))),
	}
	if rec.CoverRef != nil {
		rows[1] = append(rows[1], CallbackButton("حذف کاور", f.cb("remove_cover")))
	}
	rows = append(rows,
		Row(CallbackButton("مدیریت فایل‌ها 📂", f.cb("items"))),
		Row(CallbackButton("حذف 🗑️", f.cb("delete"))),
		Row(CallbackButton(txtBackButton, f.cb("menu"))),
	)

	text := contentDetailText(rec, len(items), views)
	if status != "" {
		text = status + "\n\n" + text
	}
	f.e.respond(ctx, s, ev, text, Inline(rows...))
	return f.state(StepMenu)
}

func (f *contentFlow) selectRecord(ctx context.Context, s *Session, ev Event) State {
	id, err := parseID(ev.Data, f.cb("select:"))
	if err != nil {
		f.e.invalid(ctx, s, ev)
		return s.State
	}
	return f.renderDetail(ctx, s, ev, id, "")
}

func (f *contentFlow) showRecord(ctx context.Context, s *Session, ev Event) State {
	id, ok := f.selected(ctx, s, ev)
	if !ok {
		return f.renderMenu(ctx, s, ev, "")
	}
	s.SelectedItem = 0
	return f.renderDetail(ctx, s, ev, id, "")
}

func (f *contentFlow) askEdit(step Step, prompt string) Handler {
	return func(ctx context.Context, s *Session, ev Event) State {
		if _, ok := f.selected(ctx, s, ev); !ok {
			return s.State
		}
		f.e.respond(ctx, s, ev, prompt, f.cancelMarkup())
		return f.state(step)
	}
}

func (f *contentFlow) update(ctx context.Context, s *Session, ev Event, p domain.Patch) State {
	id, ok := f.selected(ctx, s, ev)
	if !ok {
		return f.renderMenu(ctx, s, ev, "")
	}
	err := f.e.content.Update(ctx, f.kind, id, p)
	if isNotFound(err) {
		return f.stale(ctx, s, ev)
	}
	if err != nil {
		f.e.storageError(ctx, s, ev, "update content", err)
		return s.State
	}
	return f.renderDetail(ctx, s, ev, id, txtUpdated)
}

func (f *contentFlow) editText(field domain.DraftField) Handler {
	return func(ctx context.Context, s *Session, ev Event) State {
		value := strings.TrimSpace(ev.Text)
		if value == "" {
			f.e.send(ctx, ev.ChatID, txtEmptyText, f.cancelMarkup())
			return s.State
		}
		var p domain.Patch
		if field == domain.FieldTitle {
			p.Title = &value
		} else {
			p.Description = &value
		}
		return f.update(ctx, s, ev, p)
	}
}

func (f *contentFlow) editCover(ctx context.Context, s *Session, ev Event) State {
	m, ok := ev.Attachments.Classify()
	if !ok || m.Kind != domain.FilePhoto {
		f.e.send(ctx, ev.ChatID, txtCoverPhotoOnly, f.cancelMarkup())
		return s.State
	}
	return f.update(ctx, s, ev, domain.Patch{CoverRef: &m.FileRef})
}

func (f *contentFlow) removeCover(ctx context.Context, s *Session, ev Event) State {
	return f.update(ctx, s, ev, domain.Patch{ClearCover: true})
}

func (f *contentFlow) deleteRecord(ctx context.Context, s *Session, ev Event) State {
	id, ok := f.selected(ctx, s, ev)
	if !ok {
		return s.State
	}
	if err := f.e.content.Delete(ctx, f.kind, id); err != nil && !isNotFound(err) {
		f.e.storageError(ctx, s, ev, "delete content", err)
		return s.State
	}
	delete(s.Selected, f.kind)
	s.SelectedItem = 0
	f.e.toast(ctx, s, ev, txtDeleted)
	return f.renderMenu(ctx, s, ev, txtDeleted)
}

func (f *contentFlow) draft(s *Session) Draft {
	if s.Draft == nil || s.Draft.Kind() != f.kind {
		s.Draft = f.e.drafts.Begin(f.kind)
	}
	return s.Draft
}

func (f *contentFlow) beginDraft(ctx context.Context, s *Session, ev Event) State {
	s.Draft = f.e.drafts.Begin(f.kind)
	f.e.respond(ctx, s, ev, txtSendTitle, f.cancelMarkup())
	return f.state(StepAddTitle)
}

func (f *contentFlow) setTitle(ctx context.Context, s *Session, ev Event) State {
	if err := f.e.drafts.SetText(f.draft(s), domain.FieldTitle, ev.Text); err != nil {
		f.e.send(ctx, ev.ChatID, txtEmptyText, f.cancelMarkup())
		return s.State
	}
	f.e.send(ctx, ev.ChatID, txtSendDesc, f.cancelMarkup())
	return f.state(StepAddDescription)
}

func (f *contentFlow) setDescription(ctx context.Context, s *Session, ev Event) State {
	if err := f.e.drafts.SetText(f.draft(s), domain.FieldDescription, ev.Text); err != nil {
		f.e.send(ctx, ev.ChatID, txtEmptyText, f.cancelMarkup())
		return s.State
	}
	f.e.send(ctx, ev.ChatID, txtSendCover, Inline(
		Row(CallbackButton(txtSkipCover, f.cb("skip_cover"))),
		Row(CallbackButton(txtCancelButton, f.cb("menu"))),
	))
	return f.state(StepAddCover)
}

func (f *contentFlow) itemsMarkup() *Markup {
	return Inline(
		Row(CallbackButton(txtFinishButton, f.cb("finish"))),
		Row(CallbackButton(txtCancelButton, f.cb("menu"))),
	)
}

func (f *contentFlow) setCover(ctx context.Context, s *Session, ev Event) State {
	m, ok := ev.Attachments.Classify()
	if !ok || m.Kind != domain.FilePhoto {
		f.e.send(ctx, ev.ChatID, txtCoverPhotoOnly, nil)
		return s.State
	}
	f.e.drafts.SetCover(f.draft(s), m)
	f.e.send(ctx, ev.ChatID, txtSendItems, f.itemsMarkup())
	return f.state(StepAddContent)
}

func (f *contentFlow) skipCover(ctx context.Context, s *Session, ev Event) State {
	f.e.respond(ctx, s, ev, txtSendItems, f.itemsMarkup())
	return f.state(StepAddContent)
}

func (f *contentFlow) appendItem(ctx context.Context, s *Session, ev Event) State {
	m, ok := ev.Attachments.Classify()
	if !ok {
		f.e.send(ctx, ev.ChatID, txtUnsupported, f.itemsMarkup())
		return s.State
	}
	order := f.e.drafts.AppendItem(f.draft(s), m)
	f.e.send(ctx, ev.ChatID, itemAddedText(order), f.itemsMarkup())
	return s.State
}

func (f *contentFlow) remindItems(ctx context.Context, s *Session, ev Event) State {
	f.e.send(ctx, ev.ChatID, txtSendItems, f.itemsMarkup())
	return s.State
}

// commit publishes the draft. A draft missing a required field is kept and
// the user is sent back to the step that fills it.
func (f *contentFlow) commit(ctx context.Context, s *Session, ev Event) State {
	_, err := f.e.drafts.Commit(ctx, f.kind, s.Draft)
	var incomplete *domain.IncompleteDraftError
	if errors.As(err, &incomplete) {
		f.e.respond(ctx, s, ev, draftMissingText(incomplete.Missing), f.cancelMarkup())
		if incomplete.Missing == domain.FieldDescription {
			return f.state(StepAddDescription)
		}
		return f.state(StepAddTitle)
	}
	if err != nil {
		f.e.storageError(ctx, s, ev, "commit draft", err)
		return s.State
	}
	s.DiscardDraft()
	f.e.toast(ctx, s, ev, publishedText(f.kind))
	return f.renderMenu(ctx, s, ev, publishedText(f.kind))
}

func (f *contentFlow) showItems(ctx context.Context, s *Session, ev Event) State {
	id, ok := f.selected(ctx, s, ev)
	if !ok {
		return f.renderMenu(ctx, s, ev, "")
	}
	return f.renderItems(ctx, s, ev, id, "")
}

func (f *contentFlow) renderItems(ctx context.Context, s *Session, ev Event, id int64, status string) State {
	rec, items, err := f.e.catalogue.Open(ctx, f.kind, id)
	if isNotFound(err) {
		return f.stale(ctx, s, ev)
	}
	if err != nil {
		f.e.storageError(ctx, s, ev, "list items", err)
		return s.State
	}
	s.SelectedItem = 0

	rows := make([][]Button, 0, len(items)+2)
	for _, it := range items {
		itemID := strconv.FormatInt(it.ID, 10)
		rows = append(rows, Row(
			CallbackButton(itemLabel(it)+" 🔄", f.cb("item:"+itemID)),
			CallbackButton("🗑", f.cb("item_del:"+itemID)),
		))
	}
	rows = append(rows,
		Row(CallbackButton("➕ افزودن فایل", f.cb("item_add"))),
		Row(CallbackButton(txtBackButton, f.cb("open"))),
	)

	text := "فایل‌های «" + html.EscapeString(rec.Title) + "»:"
	if len(items) == 0 {
		text += "\n\n" + txtNoItems
	}
	if status != "" {
		text = status + "\n\n" + text
	}
	f.e.respond(ctx, s, ev, text, Inline(rows...))
	return f.state(StepManageContentList)
}

func (f *contentFlow) backToItemsMarkup() *Markup {
	return Inline(Row(CallbackButton(txtBackButton, f.cb("items"))))
}

func (f *contentFlow) askReplaceItem(ctx context.Context, s *Session, ev Event) State {
	itemID, err := parseID(ev.Data, f.cb("item:"))
	if err != nil {
		f.e.invalid(ctx, s, ev)
		return s.State
	}
	s.SelectedItem = itemID
	f.e.respond(ctx, s, ev, txtSendNewFile, f.backToItemsMarkup())
	return f.state(StepEditContentItem)
}

func (f *contentFlow) replaceItem(ctx context.Context, s *Session, ev Event) State {
	m, ok := ev.Attachments.Classify()
	if !ok {
		f.e.send(ctx, ev.ChatID, txtUnsupported, f.backToItemsMarkup())
		return s.State
	}
	id, ok := f.selected(ctx, s, ev)
	if !ok {
		return f.renderMenu(ctx, s, ev, "")
	}
	err := f.e.content.ReplaceItem(ctx, id, s.SelectedItem, m)
	if isNotFound(err) {
		return f.renderItems(ctx, s, ev, id, txtNoLongerThere)
	}
	if err != nil {
		f.e.storageError(ctx, s, ev, "replace item", err)
		return s.State
	}
	return f.renderItems(ctx, s, ev, id, txtUpdated)
}

func (f *contentFlow) deleteItem(ctx context.Context, s *Session, ev Event) State {
	itemID, err := parseID(ev.Data, f.cb("item_del:"))
	if err != nil {
		f.e.invalid(ctx, s, ev)
		return s.State
	}
	id, ok := f.selected(ctx, s, ev)
	if !ok {
		return f.renderMenu(ctx, s, ev, "")
	}
	if err := f.e.content.DeleteItem(ctx, id, itemID); err != nil && !isNotFound(err) {
		f.e.storageError(ctx, s, ev, "delete item", err)
		return s.State
	}
	f.e.toast(ctx, s, ev, txtDeleted)
	return f.renderItems(ctx, s, ev, id, txtDeleted)
}

func (f *contentFlow) askNewItem(ctx context.Context, s *Session, ev Event) State {
	if _, ok := f.selected(ctx, s, ev); !ok {
		return f.renderMenu(ctx, s, ev, "")
	}
	f.e.respond(ctx, s, ev, txtSendNewItem, f.backToItemsMarkup())
	return f.state(StepAddContentItem)
}

func (f *contentFlow) addItem(ctx context.Context, s *Session, ev Event) State {
	m, ok := ev.Attachments.Classify()
	if !ok {
		f.e.send(ctx, ev.ChatID, txtUnsupported, f.backToItemsMarkup())
		return s.State
	}
	id, ok := f.selected(ctx, s, ev)
	if !ok {
		return f.renderMenu(ctx, s, ev, "")
	}
	_, err := f.e.content.AppendItem(ctx, id, m)
	if isNotFound(err) {
		return f.stale(ctx, s, ev)
	}
	if err != nil {
		f.e.storageError(ctx, s, ev, "append item", err)
		return s.State
	}
	return f.renderItems(ctx, s, ev, id, txtUpdated)
}
