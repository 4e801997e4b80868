package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"signup-server/internal/capacity"
	"signup-server/internal/model"
	"signup-server/internal/repository"
)

// memStore is an in-memory stand-in for the three repositories. Signup
// creation holds one mutex across the whole check-then-insert span, matching
// the isolation the real transaction provides, so the concurrency tests are
// exercising the service against an honest store. The memEvents, memPositions
// and memSignups adapters expose it through the store interfaces.
type memStore struct {
	mu        sync.Mutex
	events    map[string]*model.Event
	positions map[string]*model.Position
	signups   map[string]*model.Signup
	posOrder  []string
}

func newMemStore() *memStore {
	return &memStore{
		events:    make(map[string]*model.Event),
		positions: make(map[string]*model.Position),
		signups:   make(map[string]*model.Signup),
	}
}

func newTestService() (*Service, *memStore) {
	m := newMemStore()
	return New(memEvents{m}, memPositions{m}, memSignups{m}), m
}

func (m *memStore) eventCount(eventID string) int {
	n := 0
	for _, s := range m.signups {
		if s.EventID == eventID {
			n++
		}
	}
	return n
}

func (m *memStore) positionCount(positionID string) int {
	n := 0
	for _, s := range m.signups {
		if s.PositionID != nil && *s.PositionID == positionID {
			n++
		}
	}
	return n
}

// eventPositions returns copies with live counts, in creation order.
// Caller must hold the lock.
func (m *memStore) eventPositions(eventID string) []model.Position {
	out := []model.Position{}
	for _, id := range m.posOrder {
		p, ok := m.positions[id]
		if !ok || p.EventID != eventID {
			continue
		}
		cp := *p
		cp.Count = m.positionCount(p.ID)
		out = append(out, cp)
	}
	return out
}

func (m *memStore) projectEvent(e *model.Event) *model.Event {
	cp := *e
	cp.Count = m.eventCount(e.ID)
	cp.Positions = m.eventPositions(e.ID)
	return &cp
}

// ─── EventStore ───────────────────────────────────────────────────────────────

type memEvents struct{ m *memStore }

func (a memEvents) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	e := &model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		CreatedAt:   time.Now().UTC(),
	}
	a.m.events[e.ID] = e
	return a.m.projectEvent(e), nil
}

func (a memEvents) List(ctx context.Context) ([]model.Event, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	var out []model.Event
	for _, e := range a.m.events {
		out = append(out, *a.m.projectEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (a memEvents) GetByID(ctx context.Context, id string) (*model.Event, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	e, ok := a.m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a.m.projectEvent(e), nil
}

func (a memEvents) Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	e, ok := a.m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.StartsAt != nil {
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = req.EndsAt
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			e.Capacity = nil
		} else {
			e.Capacity = req.Capacity
		}
	}
	return a.m.projectEvent(e), nil
}

func (a memEvents) Delete(ctx context.Context, id string) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if _, ok := a.m.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(a.m.events, id)
	// Cascade like the schema does.
	for pid, p := range a.m.positions {
		if p.EventID == id {
			delete(a.m.positions, pid)
		}
	}
	for sid, s := range a.m.signups {
		if s.EventID == id {
			delete(a.m.signups, sid)
		}
	}
	return nil
}

// ─── PositionStore ────────────────────────────────────────────────────────────

type memPositions struct{ m *memStore }

func (a memPositions) Create(ctx context.Context, eventID string, req model.CreatePositionRequest) (*model.Position, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if _, ok := a.m.events[eventID]; !ok {
		return nil, repository.ErrNotFound
	}
	p := &model.Position{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Name:      req.Name,
		Capacity:  req.Capacity,
		CreatedAt: time.Now().UTC(),
	}
	a.m.positions[p.ID] = p
	a.m.posOrder = append(a.m.posOrder, p.ID)
	return p, nil
}

func (a memPositions) ListByEvent(ctx context.Context, eventID string) ([]model.Position, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	return a.m.eventPositions(eventID), nil
}

func (a memPositions) Update(ctx context.Context, id string, req model.UpdatePositionRequest) (*model.Position, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	p, ok := a.m.positions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Capacity != nil {
		p.Capacity = *req.Capacity
	}
	cp := *p
	cp.Count = a.m.positionCount(p.ID)
	return &cp, nil
}

func (a memPositions) Delete(ctx context.Context, id string) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if _, ok := a.m.positions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(a.m.positions, id)
	// ON DELETE SET NULL: signups survive unassigned.
	for _, s := range a.m.signups {
		if s.PositionID != nil && *s.PositionID == id {
			s.PositionID = nil
		}
	}
	return nil
}

// ─── SignupStore ──────────────────────────────────────────────────────────────

type memSignups struct{ m *memStore }

func (a memSignups) Create(ctx context.Context, p repository.CreateSignupParams) (*model.Signup, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	e, ok := a.m.events[p.EventID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	positions := a.m.eventPositions(p.EventID)
	if err := capacity.Evaluate(e.Capacity, a.m.eventCount(p.EventID), positions, p.PositionID); err != nil {
		return nil, err
	}
	for _, s := range a.m.signups {
		if s.EventID != p.EventID {
			continue
		}
		if p.Email != "" && s.Email != nil && *s.Email == p.Email {
			return nil, repository.ErrDuplicateEmail
		}
		if p.Phone != "" && s.Phone != nil && *s.Phone == p.Phone {
			return nil, repository.ErrDuplicatePhone
		}
	}

	s := &model.Signup{
		ID:              uuid.New().String(),
		EventID:         p.EventID,
		Name:            p.Name,
		CancelTokenHash: p.TokenHash,
		CreatedAt:       time.Now().UTC(),
	}
	if p.PositionID != "" {
		pid := p.PositionID
		s.PositionID = &pid
	}
	if p.Email != "" {
		email := p.Email
		s.Email = &email
	}
	if p.Phone != "" {
		phone := p.Phone
		s.Phone = &phone
	}
	a.m.signups[s.ID] = s
	return s, nil
}

func (a memSignups) GetByEvent(ctx context.Context, eventID, signupID string) (*model.Signup, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	s, ok := a.m.signups[signupID]
	if !ok || s.EventID != eventID {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (a memSignups) Delete(ctx context.Context, id string) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if _, ok := a.m.signups[id]; !ok {
		return repository.ErrNotFound
	}
	delete(a.m.signups, id)
	return nil
}

func (a memSignups) ListByEvent(ctx context.Context, eventID string) ([]model.Signup, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	var out []model.Signup
	for _, s := range a.m.signups {
		if s.EventID != eventID {
			continue
		}
		cp := *s
		if s.PositionID != nil {
			if p, ok := a.m.positions[*s.PositionID]; ok {
				name := p.Name
				cp.PositionName = &name
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
