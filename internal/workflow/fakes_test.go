package workflow

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/set-night/seyedbot/internal/domain"
)

type sentMessage struct {
	ChatID  int64
	Text    string
	Media   *domain.Media
	Markup  *Markup
	Edited  bool
	Copied  bool
	FromMsg int
}

type answer struct {
	Text  string
	Alert bool
}

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []sentMessage
	answers   []answer
	members   map[int64]MemberStatus
	memberErr error
	failFor   map[int64]bool
	hold      map[int64]chan struct{}
	inFlight  int
	peak      int
	delay     time.Duration
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{members: map[int64]MemberStatus{}, failFor: map[int64]bool{}, hold: map[int64]chan struct{}{}}
}

var errSendFailed = errors.New("bot was blocked by the user")

func (m *fakeMessenger) SendText(ctx context.Context, chatID int64, text string, markup *Markup) error {
	m.mu.Lock()
	m.inFlight++
	m.peak = max(m.peak, m.inFlight)
	delay := m.delay
	gate := m.hold[chatID]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	if m.failFor[chatID] {
		return errSendFailed
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (m *fakeMessenger) SendMedia(ctx context.Context, chatID int64, media domain.Media, caption string, markup *Markup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[chatID] {
		return errSendFailed
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: caption, Media: &media, Markup: markup})
	return nil
}

func (m *fakeMessenger) EditText(ctx context.Context, chatID int64, messageID int, text string, markup *Markup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Markup: markup, Edited: true})
	return nil
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, answer{Text: text, Alert: alert})
	return nil
}

func (m *fakeMessenger) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: toChatID, Copied: true, FromMsg: messageID})
	return nil
}

func (m *fakeMessenger) MemberStatus(ctx context.Context, userID int64) (MemberStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.memberErr != nil {
		return "", m.memberErr
	}
	if st, ok := m.members[userID]; ok {
		return st, nil
	}
	return MemberLeft, nil
}

func (m *fakeMessenger) to(chatID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

func (m *fakeMessenger) last(chatID int64) sentMessage {
	msgs := m.to(chatID)
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

func (m *fakeMessenger) texts(chatID int64) []string {
	var out []string
	for _, s := range m.to(chatID) {
		out = append(out, s.Text)
	}
	return out
}

func (m *fakeMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.answers = nil
}

func (m *fakeMessenger) lastAnswer() answer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.answers) == 0 {
		return answer{}
	}
	return m.answers[len(m.answers)-1]
}

type fakeUsers struct {
	mu          sync.Mutex
	users       map[int64]*domain.User
	upserts     int
	hasPhoneErr error
	panicOnce   bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]*domain.User{}}
}

func (f *fakeUsers) UpsertProfile(ctx context.Context, p domain.Profile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.panicOnce {
		f.panicOnce = false
		panic("upsert exploded")
	}
	u, ok := f.users[p.TelegramID]
	if !ok {
		f.users[p.TelegramID] = &domain.User{TelegramID: p.TelegramID, FirstName: p.FirstName, LastName: p.LastName, Username: p.Username}
		return true, nil
	}
	u.FirstName, u.LastName, u.Username = p.FirstName, p.LastName, p.Username
	return false, nil
}

func (f *fakeUsers) HasPhone(ctx context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasPhoneErr != nil {
		return false, f.hasPhoneErr
	}
	u, ok := f.users[userID]
	return ok && u.HasPhone(), nil
}

func (f *fakeUsers) SetPhone(ctx context.Context, p domain.Profile, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[p.TelegramID]
	if !ok {
		u = &domain.User{TelegramID: p.TelegramID}
		f.users[p.TelegramID] = u
	}
	u.PhoneNumber = phone
	return nil
}

func (f *fakeUsers) Get(ctx context.Context, userID int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) Recipients(ctx context.Context, filter domain.BroadcastFilter) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id, u := range f.users {
		switch {
		case filter == domain.BroadcastWithPhone && !u.HasPhone():
			continue
		case filter == domain.BroadcastLacksPhone && u.HasPhone():
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *fakeUsers) Stats(ctx context.Context) (domain.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s domain.UserStats
	for _, u := range f.users {
		s.Total++
		if u.HasPhone() {
			s.WithPhone++
		}
	}
	s.WithoutPhone = s.Total - s.WithPhone
	return s, nil
}

func (f *fakeUsers) add(id int64, phone string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &domain.User{TelegramID: id, PhoneNumber: phone, FirstName: "user"}
}

type fakeAdmins struct {
	mu        sync.Mutex
	bootstrap map[int64]bool
	stored    map[int64]bool
}

func newFakeAdmins(bootstrap ...int64) *fakeAdmins {
	a := &fakeAdmins{bootstrap: map[int64]bool{}, stored: map[int64]bool{}}
	for _, id := range bootstrap {
		a.bootstrap[id] = true
	}
	return a
}

func (a *fakeAdmins) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bootstrap[userID] || a.stored[userID], nil
}

func (a *fakeAdmins) Add(ctx context.Context, userID int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bootstrap[userID] || a.stored[userID] {
		return false, nil
	}
	a.stored[userID] = true
	return true, nil
}

func (a *fakeAdmins) Remove(ctx context.Context, userID int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bootstrap[userID] {
		return false, domain.ErrBootstrapAdmin
	}
	if !a.stored[userID] {
		return false, nil
	}
	delete(a.stored, userID)
	return true, nil
}

func (a *fakeAdmins) List(ctx context.Context) ([]domain.Admin, error) {
	ids, _ := a.IDs(ctx)
	out := make([]domain.Admin, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Admin{TelegramID: id, Bootstrap: a.bootstrap[id]})
	}
	return out, nil
}

func (a *fakeAdmins) Removable(ctx context.Context) ([]domain.Admin, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.Admin
	for id := range a.stored {
		out = append(out, domain.Admin{TelegramID: id})
	}
	return out, nil
}

func (a *fakeAdmins) IDs(ctx context.Context) ([]int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ids []int64
	for id := range a.bootstrap {
		ids = append(ids, id)
	}
	for id := range a.stored {
		if !a.bootstrap[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

type fakeContent struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]domain.ContentRecord
	items   map[int64][]domain.ContentItem
	views   map[int64]int64
}

func newFakeContent() *fakeContent {
	return &fakeContent{records: map[int64]domain.ContentRecord{}, items: map[int64][]domain.ContentItem{}, views: map[int64]int64{}}
}

func (c *fakeContent) List(ctx context.Context, kind domain.ContentKind) ([]domain.ContentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.ContentRecord
	for _, r := range c.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.ContentRecord) int { return int(a.ID - b.ID) })
	return out, nil
}

func (c *fakeContent) Get(ctx context.Context, kind domain.ContentKind, id int64) (*domain.ContentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	if !ok || r.Kind != kind {
		return nil, domain.ErrContentNotFound
	}
	return &r, nil
}

func (c *fakeContent) Items(ctx context.Context, parentID int64) ([]domain.ContentItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items[parentID]), nil
}

func (c *fakeContent) Create(ctx context.Context, kind domain.ContentKind, nc domain.NewContent, items []domain.PendingItem) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.records[id] = domain.ContentRecord{ID: id, Kind: kind, Title: nc.Title, Description: nc.Description, CoverRef: nc.CoverRef}
	for _, it := range items {
		c.nextID++
		c.items[id] = append(c.items[id], domain.ContentItem{ID: c.nextID, ParentID: id, FileRef: it.Media.FileRef, FileKind: it.Media.Kind, Order: it.Order})
	}
	return id, nil
}

func (c *fakeContent) Update(ctx context.Context, kind domain.ContentKind, id int64, p domain.Patch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	if !ok || r.Kind != kind {
		return domain.ErrContentNotFound
	}
	c.records[id] = p.Apply(r)
	return nil
}

func (c *fakeContent) Delete(ctx context.Context, kind domain.ContentKind, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	if !ok || r.Kind != kind {
		return domain.ErrContentNotFound
	}
	delete(c.records, id)
	delete(c.items, id)
	delete(c.views, id)
	return nil
}

func (c *fakeContent) AppendItem(ctx context.Context, parentID int64, m domain.Media) (*domain.ContentItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[parentID]; !ok {
		return nil, domain.ErrContentNotFound
	}
	c.nextID++
	it := domain.ContentItem{ID: c.nextID, ParentID: parentID, FileRef: m.FileRef, FileKind: m.Kind, Order: len(c.items[parentID])}
	c.items[parentID] = append(c.items[parentID], it)
	return &it, nil
}

func (c *fakeContent) ReplaceItem(ctx context.Context, parentID, itemID int64, m domain.Media) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range c.items[parentID] {
		if it.ID == itemID {
			c.items[parentID][i].FileRef, c.items[parentID][i].FileKind = m.FileRef, m.Kind
			return nil
		}
	}
	return domain.ErrItemNotFound
}

func (c *fakeContent) DeleteItem(ctx context.Context, parentID, itemID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.items[parentID]
	for i, it := range items {
		if it.ID == itemID {
			c.items[parentID] = slices.Delete(items, i, i+1)
			return nil
		}
	}
	return domain.ErrItemNotFound
}

func (c *fakeContent) RecordView(ctx context.Context, recordID, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[recordID]++
	return nil
}

func (c *fakeContent) ViewCount(ctx context.Context, recordID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[recordID], nil
}

func (c *fakeContent) byTitle(title string) (domain.ContentRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.Title == title {
			return r, true
		}
	}
	return domain.ContentRecord{}, false
}

type fakeConsultations struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*domain.ConsultationRequest
}

func newFakeConsultations() *fakeConsultations {
	return &fakeConsultations{requests: map[int64]*domain.ConsultationRequest{}}
}

func (f *fakeConsultations) Create(ctx context.Context, userID int64, receipt domain.Media, amount decimal.Decimal) (*domain.ConsultationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req := &domain.ConsultationRequest{ID: f.nextID, UserID: userID, ReceiptRef: receipt.FileRef, ReceiptKind: receipt.Kind, Amount: amount, Status: domain.ConsultationPending}
	f.requests[req.ID] = req
	cp := *req
	return &cp, nil
}

func (f *fakeConsultations) Get(ctx context.Context, id int64) (*domain.ConsultationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeConsultations) Decide(ctx context.Context, id int64, status domain.ConsultationStatus, reason *string, decidedBy int64) (*domain.ConsultationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if !req.Pending() {
		return nil, &domain.AlreadyProcessedError{RequestID: id, Status: req.Status}
	}
	req.Status = status
	req.RejectionReason = reason
	req.DecidedBy = &decidedBy
	cp := *req
	return &cp, nil
}

type fakeFlags struct {
	mu       sync.Mutex
	required bool
}

func (f *fakeFlags) PhoneRequired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.required
}

func (f *fakeFlags) SetPhoneRequired(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.required = v
}

type countingRecorder struct {
	nopRecorder
	mu      sync.Mutex
	guards  map[string]int
	invalid int
}

func (r *countingRecorder) GuardRejected(guard string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.guards == nil {
		r.guards = map[string]int{}
	}
	r.guards[guard]++
}

func (r *countingRecorder) InvalidEvent(State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalid++
}
