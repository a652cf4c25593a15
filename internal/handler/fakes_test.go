package handler

import (
	"context"
	"sort"

	"github.com/jorisdh/appdepot/internal/model"
	"github.com/jorisdh/appdepot/internal/repository"
	"github.com/jorisdh/appdepot/internal/utils"
)

// In-memory store fakes. They mirror the repository contracts closely enough
// for handler tests: duplicate checks return the repository sentinels, and
// disable/delete move tracked tokens onto an in-memory denylist the way the
// real transaction writes blacklist_tokens rows.

type fakeUserStore struct {
	nextID       uint64
	users        map[uint64]model.User
	tokensByUser map[uint64][]string
	denylist     map[string]bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:        map[uint64]model.User{},
		tokensByUser: map[uint64][]string{},
		denylist:     map[string]bool{},
	}
}

func (f *fakeUserStore) addUser(u model.User, plainPassword string) uint64 {
	hash, _ := utils.HashPassword(plainPassword, 4)
	f.nextID++
	u.ID = f.nextID
	u.PasswordHash = hash
	f.users[u.ID] = u
	return u.ID
}

func (f *fakeUserStore) checkDup(username, email string, excludeID uint64) error {
	for id, u := range f.users {
		if id == excludeID {
			continue
		}
		if u.Username == username {
			return repository.ErrUsernameExists
		}
		if email != "" && u.EmailAddress == email {
			return repository.ErrEmailExists
		}
	}
	return nil
}

func (f *fakeUserStore) Create(_ context.Context, u model.User, plainPassword string, _ int) (uint64, error) {
	if err := f.checkDup(u.Username, u.EmailAddress, 0); err != nil {
		return 0, err
	}
	return f.addUser(u, plainPassword), nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	ids := make([]uint64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u := f.users[id]
		u.PasswordHash = ""
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserStore) Count(_ context.Context) (int, error) { return len(f.users), nil }

func (f *fakeUserStore) CountEnabled(_ context.Context) (int, error) {
	n := 0
	for _, u := range f.users {
		if u.IsEnabled {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserStore) Update(_ context.Context, id uint64, u model.User, plainPassword string, _ int) ([]string, error) {
	cur, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if err := f.checkDup(u.Username, u.EmailAddress, id); err != nil {
		return nil, err
	}
	u.ID = id
	u.PasswordHash = cur.PasswordHash
	if plainPassword != "" {
		hash, _ := utils.HashPassword(plainPassword, 4)
		u.PasswordHash = hash
	}
	f.users[id] = u

	if cur.IsEnabled && !u.IsEnabled {
		return f.revoke(id), nil
	}
	return nil, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uint64) ([]string, error) {
	if _, ok := f.users[id]; !ok {
		return nil, repository.ErrUserNotFound
	}
	revoked := f.revoke(id)
	delete(f.users, id)
	delete(f.tokensByUser, id)
	return revoked, nil
}

func (f *fakeUserStore) revoke(id uint64) []string {
	tokens := f.tokensByUser[id]
	for _, t := range tokens {
		f.denylist[t] = true
	}
	return tokens
}

// IsBlacklisted lets the fake double as a middleware.Denylist so tests can
// run revoked tokens through the real JWTAuth middleware.
func (f *fakeUserStore) IsBlacklisted(_ context.Context, token string) (bool, error) {
	return f.denylist[token], nil
}

type fakeTokenStore struct {
	users *fakeUserStore
}

func (f *fakeTokenStore) StoreIssued(_ context.Context, userID uint64, token string) error {
	f.users.tokensByUser[userID] = append(f.users.tokensByUser[userID], token)
	return nil
}

type fakeSettingStore struct {
	values map[string]string
}

func (f *fakeSettingStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return v, nil
}

func (f *fakeSettingStore) Set(_ context.Context, key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

type fakeAppStore struct {
	nextID uint64
	apps   map[uint64]model.WindowsApp
}

func newFakeAppStore() *fakeAppStore {
	return &fakeAppStore{apps: map[uint64]model.WindowsApp{}}
}

func (f *fakeAppStore) List(_ context.Context) ([]model.WindowsApp, error) {
	ids := make([]uint64, 0, len(f.apps))
	for id := range f.apps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.WindowsApp, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.apps[id])
	}
	return out, nil
}

func (f *fakeAppStore) Create(_ context.Context, a model.WindowsApp) (uint64, error) {
	f.nextID++
	a.ID = f.nextID
	f.apps[a.ID] = a
	return a.ID, nil
}

func (f *fakeAppStore) Update(_ context.Context, id uint64, a model.WindowsApp) error {
	cur, ok := f.apps[id]
	if !ok {
		return repository.ErrAppNotFound
	}
	a.ID = id
	a.CreatedBy = cur.CreatedBy
	f.apps[id] = a
	return nil
}

func (f *fakeAppStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.apps[id]; !ok {
		return repository.ErrAppNotFound
	}
	delete(f.apps, id)
	return nil
}

func (f *fakeAppStore) Count(_ context.Context) (int, error) { return len(f.apps), nil }
