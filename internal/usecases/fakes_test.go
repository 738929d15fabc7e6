package usecases

import (
	"context"
	"fmt"
	"sync"

	"geoassist/internal/entities"
	"geoassist/internal/interfaces"
)

// fakeStore is an in-memory AccountStore for gate and pipeline tests.
type fakeStore struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*entities.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, users: make(map[int]*entities.User)}
}

func (s *fakeStore) Create(_ context.Context, username, passwordHash, role string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return 0, entities.ErrDuplicateUsername
		}
	}
	id := s.nextID
	s.nextID++
	s.users[id] = &entities.User{ID: id, Username: username, PasswordHash: passwordHash, Role: role}
	return id, nil
}

func (s *fakeStore) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) List(context.Context) ([]entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []entities.User{}
	for id := 1; id < s.nextID; id++ {
		if u, ok := s.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (s *fakeStore) Update(_ context.Context, id int, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for otherID, u := range s.users {
		if otherID != id && u.Username == username {
			return entities.ErrDuplicateUsername
		}
	}
	if u, ok := s.users[id]; ok {
		u.Username = username
		u.PasswordHash = passwordHash
	}
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *fakeStore) IncrementUsage(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok && !u.PaymentDone {
		u.Usage++
	}
	return nil
}

func (s *fakeStore) GetUsage(_ context.Context, id int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Usage, nil
	}
	return 0, entities.ErrUserNotFound
}

func (s *fakeStore) ResetUsage(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Usage = 0
	}
	return nil
}

func (s *fakeStore) SetPaymentDone(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.PaymentDone = true
	}
	return nil
}

func (s *fakeStore) GetPaymentDone(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.PaymentDone, nil
	}
	return false, entities.ErrUserNotFound
}

func (s *fakeStore) Close() {}

// setUsage seeds the persisted counter directly.
func (s *fakeStore) setUsage(id, usage int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].Usage = usage
}

type fakeAI struct {
	reply string
	err   error
}

func (f *fakeAI) Complete(context.Context, string, string) (string, error) {
	return f.reply, f.err
}

type fakeGeocoder struct {
	lat, lon float64
	err      error
	calls    int
	lastAddr string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (float64, float64, error) {
	f.calls++
	f.lastAddr = address
	return f.lat, f.lon, f.err
}

type fakePOI struct {
	pois []interfaces.POI
	err  error
}

func (f *fakePOI) Nearby(context.Context, float64, float64, int) ([]interfaces.POI, error) {
	return f.pois, f.err
}

type fakeWiki struct {
	searchRefs []interfaces.PageRef
	searchErr  error
	extract    string
	extractErr error
}

func (f *fakeWiki) Search(context.Context, string) ([]interfaces.PageRef, error) {
	return f.searchRefs, f.searchErr
}

func (f *fakeWiki) Extract(context.Context, string) (string, error) {
	return f.extract, f.extractErr
}

func (f *fakeWiki) PageURL(pageID int) string {
	return fmt.Sprintf("https://wiki.test/?curid=%d", pageID)
}

func (f *fakeWiki) ArticleURL(title string) string {
	return "https://wiki.test/wiki/" + title
}
