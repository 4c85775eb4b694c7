package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"school-journal/backend/internal/model"
	"school-journal/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// seed 直接写入用户，返回其 ID
func (m *mockUserRepo) seed(username string, isTeacher bool) int64 {
	u := &model.User{Username: username, Password: "x", IsTeacher: isTeacher}
	_ = m.Create(context.Background(), u)
	return u.ID
}

// ── Mock TagRepository ──

type mockTagRepo struct {
	tags      []model.Tag
	nextID    int64
	users     *mockUserRepo
	createErr error
}

func newMockTagRepo(users *mockUserRepo) *mockTagRepo {
	return &mockTagRepo{users: users}
}

func (m *mockTagRepo) Create(_ context.Context, journalID, studentID int64) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	m.tags = append(m.tags, model.Tag{ID: m.nextID, JournalID: journalID, StudentID: studentID})
	return m.nextID, nil
}

func (m *mockTagRepo) DeleteByJournal(_ context.Context, journalID int64) error {
	kept := m.tags[:0]
	for _, t := range m.tags {
		if t.JournalID != journalID {
			kept = append(kept, t)
		}
	}
	m.tags = kept
	return nil
}

func (m *mockTagRepo) ListRecipients(_ context.Context, journalIDs []int64) (map[int64][]string, error) {
	wanted := make(map[int64]bool, len(journalIDs))
	for _, id := range journalIDs {
		wanted[id] = true
	}
	result := make(map[int64][]string)
	for _, t := range m.tags {
		if !wanted[t.JournalID] {
			continue
		}
		if u, ok := m.users.users[t.StudentID]; ok {
			result[t.JournalID] = append(result[t.JournalID], u.Username)
		}
	}
	return result, nil
}

// studentsOf 某条日志当前的接收学生 ID（按标记顺序）
func (m *mockTagRepo) studentsOf(journalID int64) []int64 {
	var ids []int64
	for _, t := range m.tags {
		if t.JournalID == journalID {
			ids = append(ids, t.StudentID)
		}
	}
	return ids
}

// ── Mock JournalRepository ──

type mockJournalRepo struct {
	journals map[int64]*model.Journal
	nextID   int64
	tags     *mockTagRepo
}

func newMockJournalRepo(tags *mockTagRepo) *mockJournalRepo {
	return &mockJournalRepo{journals: make(map[int64]*model.Journal), tags: tags}
}

func (m *mockJournalRepo) Create(_ context.Context, journal *model.Journal) error {
	m.nextID++
	journal.ID = m.nextID
	journal.PublishedDate = nil
	journal.CreatedAt = time.Now()
	journal.UpdatedAt = journal.CreatedAt
	copied := *journal
	m.journals[journal.ID] = &copied
	return nil
}

func (m *mockJournalRepo) GetByID(_ context.Context, id int64) (*model.Journal, error) {
	if j, ok := m.journals[id]; ok {
		copied := *j
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJournalRepo) UpdateDescription(_ context.Context, id, teacherID int64, description string) (*model.Journal, error) {
	j, ok := m.journals[id]
	if !ok || j.TeacherID != teacherID {
		return nil, gorm.ErrRecordNotFound
	}
	j.Description = description
	j.UpdatedAt = time.Now()
	copied := *j
	return &copied, nil
}

func (m *mockJournalRepo) Delete(_ context.Context, id int64) error {
	delete(m.journals, id)
	return nil
}

func (m *mockJournalRepo) Publish(_ context.Context, id int64, date time.Time) (*model.Journal, error) {
	j, ok := m.journals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	d := model.DateOf(date)
	j.PublishedDate = &d
	j.UpdatedAt = time.Now()
	copied := *j
	return &copied, nil
}

func (m *mockJournalRepo) ListByTeacher(_ context.Context, teacherID int64) ([]model.Journal, error) {
	result := make([]model.Journal, 0)
	for _, j := range m.journals {
		if j.TeacherID == teacherID {
			result = append(result, *j)
		}
	}
	sortByIDDesc(result)
	return result, nil
}

func (m *mockJournalRepo) ListByStudent(_ context.Context, studentID int64, today time.Time) ([]model.Journal, error) {
	seen := make(map[int64]bool)
	result := make([]model.Journal, 0)
	for _, t := range m.tags.tags {
		if t.StudentID != studentID || seen[t.JournalID] {
			continue
		}
		seen[t.JournalID] = true
		if j, ok := m.journals[t.JournalID]; ok && j.VisibleOn(today) {
			result = append(result, *j)
		}
	}
	sortByIDDesc(result)
	return result, nil
}

func sortByIDDesc(js []model.Journal) {
	sort.Slice(js, func(a, b int) bool { return js[a].ID > js[b].ID })
}

// ── Mock TokenRevoker ──

type mockRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func newMockRevoker() *mockRevoker {
	return &mockRevoker{revoked: make(map[string]time.Duration)}
}

func (m *mockRevoker) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.revoked[jti] = ttl
	return nil
}

// ── 组装 ──

type mockRepos struct {
	users    *mockUserRepo
	journals *mockJournalRepo
	tags     *mockTagRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	tags := newMockTagRepo(users)
	journals := newMockJournalRepo(tags)
	repo := &repository.Repository{
		User:    users,
		Journal: journals,
		Tag:     tags,
	}
	return repo, &mockRepos{users: users, journals: journals, tags: tags}
}
