package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// t0 is the fixed reference clock used across the service tests.
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// clock is a manually advanced time source.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int

	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) emailOwner(email string) *domain.User {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if r.emailOwner(user.Email) != nil {
		return nil, domain.ErrEmailTaken
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[copy.ID] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.emailOwner(email); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) Activate(_ context.Context, id string, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.IsActive {
		return nil, domain.ErrUserNotFound
	}
	u.IsActive = true
	u.EmailVerified = true
	u.UpdatedAt = at
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateEmail(_ context.Context, id, email string, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if other := r.emailOwner(email); other != nil && other.ID != id {
		return nil, domain.ErrEmailTaken
	}
	u.Email = email
	u.UpdatedAt = at
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, p domain.Profile, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.FullName, u.Phone, u.PostalCode, u.Address = p.FullName, p.Phone, p.PostalCode, p.Address
	u.OrganizationName, u.RepresentativeName = p.OrganizationName, p.RepresentativeName
	u.BoothName, u.BoothSummary, u.BoothDescription = p.BoothName, p.BoothSummary, p.BoothDescription
	u.UpdatedAt = at
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = at
	return nil
}

func (r *stubUserRepo) SetFlyer(_ context.Context, id, key string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FlyerKey = key
	u.UpdatedAt = at
	return nil
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = &at
	return nil
}

// seedUser stores u directly and returns its ID.
func (r *stubUserRepo) seedUser(u domain.User) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[u.ID] = &u
	return u.ID
}

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

type stubTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
	seq    int
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]*domain.Token)}
}

func (r *stubTokenRepo) Create(_ context.Context, t *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = fmt.Sprintf("tok-%d", r.seq)
	clone := *t
	r.tokens[t.ID] = &clone
	return nil
}

func (r *stubTokenRepo) FindValid(_ context.Context, value string, purpose domain.TokenPurpose, now time.Time) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Value == value && t.Purpose == purpose && t.Valid(now) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

func (r *stubTokenRepo) DeleteValid(_ context.Context, id string, now time.Time) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || !t.Valid(now) {
		return nil, domain.ErrTokenNotFound
	}
	delete(r.tokens, id)
	return t, nil
}

func (r *stubTokenRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[id]; !ok {
		return domain.ErrTokenNotFound
	}
	delete(r.tokens, id)
	return nil
}

func (r *stubTokenRepo) DeleteByUserPurpose(_ context.Context, userID string, purpose domain.TokenPurpose) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if t.UserID == userID && t.Purpose == purpose {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *stubTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if !t.Valid(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *stubTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// only returns the single stored token, failing if there is not exactly one.
func (r *stubTokenRepo) only() (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokens) != 1 {
		return nil, fmt.Errorf("expected 1 token, have %d", len(r.tokens))
	}
	for _, t := range r.tokens {
		clone := *t
		return &clone, nil
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *sess
	s.sessions[sess.ID] = &clone
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *stubSessionStore) DeleteByUser(_ context.Context, userID, keepID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.UserID == userID && id != keepID {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Notifications and flyers
// ---------------------------------------------------------------------------

type stubNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
	err  error
}

func (n *stubNotifier) Send(_ context.Context, msg ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *stubNotifier) sentTo(addr string) []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ports.Notification
	for _, m := range n.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

type stubFlyerStore struct {
	stored map[string][]byte
	err    error
}

func newStubFlyerStore() *stubFlyerStore {
	return &stubFlyerStore{stored: make(map[string][]byte)}
}

func (f *stubFlyerStore) Put(_ context.Context, filename, _ string, _ int64, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	key := "flyers/test/" + filename
	f.stored[key] = b
	return key, nil
}

func (f *stubFlyerStore) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := f.stored[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://files.test/" + key, nil
}

// ---------------------------------------------------------------------------
// Surveys
// ---------------------------------------------------------------------------

type stubCategoryRepo struct {
	cats map[string]*domain.Category
	seq  int
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{cats: make(map[string]*domain.Category)}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	r.seq++
	c.ID = fmt.Sprintf("cat-%d", r.seq)
	clone := *c
	r.cats[c.ID] = &clone
	return nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *domain.Category) error {
	if _, ok := r.cats[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	clone := *c
	r.cats[c.ID] = &clone
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.cats[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.cats, id)
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id string) (*domain.Category, error) {
	c, ok := r.cats[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCategoryRepo) List(_ context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(r.cats))
	for _, c := range r.cats {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *stubCategoryRepo) MaxOrder(_ context.Context) (int, error) {
	highest := 0
	for _, c := range r.cats {
		if c.Order > highest {
			highest = c.Order
		}
	}
	return highest, nil
}

type stubSurveyRepo struct {
	surveys map[string]*domain.Survey
	seq     int
}

func newStubSurveyRepo() *stubSurveyRepo {
	return &stubSurveyRepo{surveys: make(map[string]*domain.Survey)}
}

func cloneSurvey(s *domain.Survey) *domain.Survey {
	clone := *s
	clone.Questions = make([]domain.Question, len(s.Questions))
	for i, q := range s.Questions {
		q.Choices = append([]domain.Choice(nil), q.Choices...)
		clone.Questions[i] = q
	}
	return &clone
}

func (r *stubSurveyRepo) assignIDs(s *domain.Survey) {
	for i := range s.Questions {
		q := &s.Questions[i]
		if q.ID == "" {
			r.seq++
			q.ID = fmt.Sprintf("q-%d", r.seq)
		}
		for j := range q.Choices {
			if q.Choices[j].ID == "" {
				r.seq++
				q.Choices[j].ID = fmt.Sprintf("c-%d", r.seq)
			}
		}
	}
}

func (r *stubSurveyRepo) Create(_ context.Context, s *domain.Survey) error {
	r.seq++
	s.ID = fmt.Sprintf("survey-%d", r.seq)
	r.assignIDs(s)
	r.surveys[s.ID] = cloneSurvey(s)
	return nil
}

func (r *stubSurveyRepo) Update(_ context.Context, s *domain.Survey) error {
	if _, ok := r.surveys[s.ID]; !ok {
		return domain.ErrSurveyNotFound
	}
	r.assignIDs(s)
	r.surveys[s.ID] = cloneSurvey(s)
	return nil
}

func (r *stubSurveyRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.surveys[id]; !ok {
		return domain.ErrSurveyNotFound
	}
	delete(r.surveys, id)
	return nil
}

func (r *stubSurveyRepo) FindByID(_ context.Context, id string) (*domain.Survey, error) {
	s, ok := r.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	return cloneSurvey(s), nil
}

func (r *stubSurveyRepo) List(_ context.Context, categoryID string) ([]*domain.Survey, error) {
	var out []*domain.Survey
	for _, s := range r.surveys {
		if categoryID == "" || s.CategoryID == categoryID {
			out = append(out, cloneSurvey(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubSurveyRepo) CountByCategory(_ context.Context, categoryID string) (int64, error) {
	var n int64
	for _, s := range r.surveys {
		if s.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

type stubAnswerRepo struct {
	mu      sync.Mutex
	answers []*domain.Answer
}

func (r *stubAnswerRepo) InsertMany(_ context.Context, answers []*domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the unique (user_id, question_id) index, including within the batch.
	seen := make(map[[2]string]bool, len(r.answers)+len(answers))
	for _, existing := range r.answers {
		seen[[2]string{existing.UserID, existing.QuestionID}] = true
	}
	for _, a := range answers {
		k := [2]string{a.UserID, a.QuestionID}
		if seen[k] {
			return domain.ErrAlreadyAnswered
		}
		seen[k] = true
	}
	for _, a := range answers {
		clone := *a
		clone.ID = fmt.Sprintf("ans-%d", len(r.answers)+1)
		a.ID = clone.ID
		r.answers = append(r.answers, &clone)
	}
	return nil
}

func (r *stubAnswerRepo) ExistsForSurvey(_ context.Context, userID, surveyID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers {
		if a.UserID == userID && a.SurveyID == surveyID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAnswerRepo) AnsweredSurveyIDs(_ context.Context, userID string, surveyIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(surveyIDs))
	for _, id := range surveyIDs {
		wanted[id] = true
	}
	out := make(map[string]bool)
	for _, a := range r.answers {
		if a.UserID == userID && wanted[a.SurveyID] {
			out[a.SurveyID] = true
		}
	}
	return out, nil
}

func (r *stubAnswerRepo) List(_ context.Context, f ports.ListAnswersFilter) ([]*domain.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Answer
	for _, a := range r.answers {
		if f.SurveyID != "" && a.SurveyID != f.SurveyID {
			continue
		}
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubAnswerRepo) DeleteBySurvey(_ context.Context, surveyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.answers[:0]
	var n int64
	for _, a := range r.answers {
		if a.SurveyID == surveyID {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.answers = kept
	return n, nil
}
