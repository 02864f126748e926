package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"projtrack/database"
	"projtrack/models"
)

// memStore is an in-memory stand-in for database.DB.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	projects map[int64]*models.Project
	nextID   int64
	clock    time.Time
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*models.User),
		projects: make(map[int64]*models.Project),
		clock:    time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.takeFailure()
}

func (s *memStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, database.ErrUserNotFound
}

func (s *memStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (s *memStore) ListProjects(_ context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	if filter.Search != "" {
		if _, err := database.NewSearchQueryParser().Parse(filter.Search); err != nil {
			return nil, errors.Join(database.ErrInvalidFilter, err)
		}
	}

	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if filter.AssignedTo != nil && (p.AssignedTo == nil || *p.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && p.Priority != filter.Priority {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *s.withCreator(p))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memStore) GetProject(_ context.Context, id int64) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, database.ErrProjectNotFound
	}
	return s.withCreator(p), nil
}

func (s *memStore) CreateProject(_ context.Context, fields models.ProjectFields, createdBy int64) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	s.nextID++
	s.clock = s.clock.Add(time.Minute)
	p := &models.Project{ID: s.nextID, CreatedBy: createdBy, DateCreated: s.clock}
	applyFields(p, fields)
	s.projects[p.ID] = p
	return s.withCreator(p), nil
}

func (s *memStore) UpdateProject(_ context.Context, id int64, fields models.ProjectFields) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, database.ErrProjectNotFound
	}
	applyFields(p, fields)
	return s.withCreator(p), nil
}

func (s *memStore) DeleteProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return database.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

func applyFields(p *models.Project, f models.ProjectFields) {
	p.Name = f.Name
	p.Description = f.Description
	p.Status = f.Status
	p.Priority = f.Priority
	p.AssignedTo = f.AssignedTo
}

func (s *memStore) withCreator(p *models.Project) *models.Project {
	copied := *p
	if u, ok := s.users[p.CreatedBy]; ok {
		copied.CreatedByName = u.Username
	}
	return &copied
}
