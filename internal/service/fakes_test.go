package service

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/imageproc"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/repository"
	"github.com/stemsi/artbox-backend/internal/storage"
	"github.com/stemsi/artbox-backend/internal/worker"
	"github.com/stretchr/testify/require"
)

// ─── In-memory stores ──────────────────────────────────────────────────────

type memUsers struct {
	mu   sync.Mutex
	rows []model.User
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) ListStudentsByClass(_ context.Context, classID uuid.UUID) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.rows {
		if u.Role == model.RoleStudent && u.ClassID != nil && *u.ClassID == classID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.rows = append(m.rows, *u)
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == u.ID {
			m.rows[i].DisplayName, m.rows[i].StudentNumber, m.rows[i].ClassID = u.DisplayName, u.StudentNumber, u.ClassID
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].PasswordHash = hash
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(u model.User) bool { return u.ID == id })
	return nil
}

type memClasses struct {
	mu   sync.Mutex
	rows []model.ClassGroup
	// collisions makes the next Create calls fail with ErrDuplicate.
	collisions int
}

func (m *memClasses) GetByID(_ context.Context, id uuid.UUID) (*model.ClassGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memClasses) GetByJoinCode(_ context.Context, code string) (*model.ClassGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.JoinCode == code {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memClasses) ListByOwner(_ context.Context, teacherID uuid.UUID) ([]model.ClassGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ClassGroup
	for _, c := range m.rows {
		if c.OwnerTeacherID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memClasses) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.ClassGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ClassGroup
	for _, c := range m.rows {
		if slices.Contains(ids, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memClasses) Create(_ context.Context, c *model.ClassGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collisions > 0 {
		m.collisions--
		return repository.ErrDuplicate
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memClasses) Update(_ context.Context, c *model.ClassGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == c.ID {
			m.rows[i] = *c
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memClasses) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(c model.ClassGroup) bool { return c.ID == id })
	return nil
}

type memTasks struct {
	mu   sync.Mutex
	rows []model.Task
}

func (m *memTasks) GetByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTasks) filter(keep func(model.Task) bool) []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, t := range m.rows {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (m *memTasks) ListByOwner(_ context.Context, teacherID uuid.UUID) ([]model.Task, error) {
	return m.filter(func(t model.Task) bool { return t.OwnerTeacherID == teacherID }), nil
}

func (m *memTasks) ListByClass(_ context.Context, classID uuid.UUID) ([]model.Task, error) {
	return m.filter(func(t model.Task) bool { return t.ClassID == classID }), nil
}

func (m *memTasks) Create(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	m.rows = append(m.rows, *t)
	return nil
}

func (m *memTasks) Update(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == t.ID {
			m.rows[i] = *t
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memTasks) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(t model.Task) bool { return t.ID == id })
	return nil
}

type memWorks struct {
	mu    sync.Mutex
	rows  []model.Work
	clock time.Time
}

func (m *memWorks) GetByID(_ context.Context, id uuid.UUID) (*model.Work, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.rows {
		if w.ID == id {
			return &w, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memWorks) filter(keep func(model.Work) bool) []model.Work {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Work
	for _, w := range m.rows {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

func (m *memWorks) ListByTask(_ context.Context, taskID uuid.UUID) ([]model.Work, error) {
	return m.filter(func(w model.Work) bool { return w.TaskID == taskID }), nil
}

func (m *memWorks) ListByTasks(_ context.Context, ids []uuid.UUID) ([]model.Work, error) {
	return m.filter(func(w model.Work) bool { return slices.Contains(ids, w.TaskID) }), nil
}

func (m *memWorks) ListByClass(_ context.Context, classID uuid.UUID) ([]model.Work, error) {
	return m.filter(func(w model.Work) bool { return w.ClassID == classID }), nil
}

func (m *memWorks) ListByStudent(_ context.Context, studentID uuid.UUID) ([]model.Work, error) {
	return m.filter(func(w model.Work) bool { return w.StudentID == studentID }), nil
}

func (m *memWorks) ListByTaskAndStudent(_ context.Context, taskID, studentID uuid.UUID) ([]model.Work, error) {
	return m.filter(func(w model.Work) bool { return w.TaskID == taskID && w.StudentID == studentID }), nil
}

func (m *memWorks) Create(_ context.Context, w *model.Work) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clock.IsZero() {
		m.clock = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	}
	m.clock = m.clock.Add(time.Minute)
	created := m.clock
	w.ID = uuid.New()
	w.Status = model.WorkStatusPending
	w.CreatedAt = &created
	m.rows = append(m.rows, *w)
	return nil
}

func (m *memWorks) SetFeedback(_ context.Context, id uuid.UUID, feedback string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].TeacherFeedback = &feedback
			m.rows[i].Status = model.WorkStatusChecked
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memWorks) SetThumbnail(_ context.Context, id uuid.UUID, index int, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && index < len(m.rows[i].Images) {
			m.rows[i].Images[index].ThumbnailURL = url
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memWorks) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(w model.Work) bool { return w.ID == id })
	return nil
}

type memResources struct {
	mu   sync.Mutex
	rows []model.SharedResource
}

func (m *memResources) GetByID(_ context.Context, id uuid.UUID) (*model.SharedResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memResources) ListByClass(_ context.Context, classID uuid.UUID) ([]model.SharedResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SharedResource
	for _, r := range m.rows {
		if r.ClassID == classID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResources) ListByTeacher(_ context.Context, teacherID uuid.UUID) ([]model.SharedResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SharedResource
	for _, r := range m.rows {
		if r.TeacherID == teacherID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResources) Create(_ context.Context, r *model.SharedResource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memResources) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(r model.SharedResource) bool { return r.ID == id })
	return nil
}

// ─── Other collaborators ───────────────────────────────────────────────────

type memSessions struct {
	mu   sync.Mutex
	jtis map[uuid.UUID]map[string]bool
}

func (m *memSessions) Add(_ context.Context, userID uuid.UUID, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jtis == nil {
		m.jtis = map[uuid.UUID]map[string]bool{}
	}
	if m.jtis[userID] == nil {
		m.jtis[userID] = map[string]bool{}
	}
	m.jtis[userID][jti] = true
	return nil
}

func (m *memSessions) Has(_ context.Context, userID uuid.UUID, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jtis[userID][jti], nil
}

func (m *memSessions) Remove(_ context.Context, userID uuid.UUID, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jtis[userID], jti)
	return nil
}

func (m *memSessions) Clear(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jtis, userID)
	return nil
}

// passthroughImages returns its input unless it exceeds limit bytes.
type passthroughImages struct {
	limit int
}

func (p passthroughImages) Process(r io.Reader, _ float64) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if p.limit > 0 && len(data) > p.limit {
		return nil, imageproc.ErrPayloadTooLarge
	}
	return data, nil
}

type memQueue struct {
	mu   sync.Mutex
	jobs []worker.ThumbnailJob
}

func (q *memQueue) Enqueue(_ context.Context, job worker.ThumbnailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

// recordingNotifier remembers every published event and forwards them to
// an in-memory notifier.
type recordingNotifier struct {
	*live.MemoryNotifier
	mu     sync.Mutex
	events []live.Event
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{MemoryNotifier: live.NewMemoryNotifier()}
}

func (n *recordingNotifier) Publish(ctx context.Context, ev live.Event) error {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
	return n.MemoryNotifier.Publish(ctx, ev)
}

func (n *recordingNotifier) topics() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Topic)
	}
	return out
}

// ─── Fixture ───────────────────────────────────────────────────────────────

type fixture struct {
	cfg       *config.Config
	users     *memUsers
	classes   *memClasses
	tasks     *memTasks
	works     *memWorks
	resources *memResources
	sessions  *memSessions
	queue     *memQueue
	notifier  *recordingNotifier
	store     *storage.LocalStore

	auth      *AuthService
	classSvc  *ClassService
	taskSvc   *TaskService
	workSvc   *WorkService
	resSvc    *ResourceService
	viewSvc   *ViewService
	importSvc *ImportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	f := &fixture{
		cfg:       &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4},
		users:     &memUsers{},
		classes:   &memClasses{},
		tasks:     &memTasks{},
		works:     &memWorks{},
		resources: &memResources{},
		sessions:  &memSessions{},
		queue:     &memQueue{},
		notifier:  newRecordingNotifier(),
		store:     store,
	}
	log := zerolog.Nop()
	images := passthroughImages{limit: 1024}

	f.auth = NewAuthService(f.cfg, f.users, f.classes, f.sessions, f.notifier, log)
	f.classSvc = NewClassService(f.classes, f.users, log)
	f.taskSvc = NewTaskService(f.tasks, f.classSvc, f.notifier, log)
	f.workSvc = NewWorkService(f.works, f.tasks, f.classes, images, store, f.queue, f.notifier, log)
	f.resSvc = NewResourceService(f.resources, f.works, f.classSvc, images, store, f.notifier, log)
	f.viewSvc = NewViewService(f.classes, f.tasks, f.works, f.users, f.resources, f.notifier, log)
	f.importSvc = NewImportService(f.auth, f.classSvc, log)
	return f
}

func (f *fixture) teacher(t *testing.T) *model.User {
	t.Helper()
	u, err := f.auth.CreateTeacher(context.Background(), "佐藤先生", uuid.NewString()+"@school.jp", "password")
	require.NoError(t, err)
	return u
}

func (f *fixture) class(t *testing.T, teacher *model.User, name string) *model.ClassGroup {
	t.Helper()
	c, err := f.classSvc.Create(context.Background(), teacher.ID, &model.ClassRequest{DisplayName: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) task(t *testing.T, teacher *model.User, class *model.ClassGroup, title, unit string) *model.Task {
	t.Helper()
	req := &model.TaskRequest{Title: title, ClassID: class.ID}
	if unit != "" {
		req.UnitName = &unit
	}
	task, err := f.taskSvc.Create(context.Background(), teacher.ID, req)
	require.NoError(t, err)
	return task
}

func (f *fixture) student(t *testing.T, class *model.ClassGroup, name, number string) *model.User {
	t.Helper()
	u, err := f.auth.CreateStudent(context.Background(), class.ID, name, uuid.NewString()+"@school.jp", number, "password")
	require.NoError(t, err)
	return u
}

func (f *fixture) submit(t *testing.T, student *model.User, task *model.Task) *model.Work {
	t.Helper()
	w, err := f.workSvc.Submit(context.Background(), student, task.ID, &Submission{
		Images:     [][]byte{bytes.Repeat([]byte{1}, 16)},
		Brightness: model.NeutralBrightness,
	})
	require.NoError(t, err)
	return w
}
