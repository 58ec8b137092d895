package session_test

import (
	"context"
	"sync"

	"mbank/internal/domain"
	"mbank/internal/problem"
)

// fakeAPI returns canned results and can run a hook while a call is in flight.
type fakeAPI struct {
	mu            sync.Mutex
	loginRes      problem.Result[domain.LoginResult]
	refreshRes    problem.Result[domain.Tokens]
	onLogin       func()
	loginCalls    int
	refreshedWith string
}

func (f *fakeAPI) Login(ctx context.Context, phone domain.PhoneNumber, password string) problem.Result[domain.LoginResult] {
	f.mu.Lock()
	f.loginCalls++
	hook, res := f.onLogin, f.loginRes
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return res
}

func (f *fakeAPI) RefreshTokens(ctx context.Context, refreshToken string) problem.Result[domain.Tokens] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshedWith = refreshToken
	return f.refreshRes
}

// fakeStorage is a map-backed SecureStore with per-key error injection.
type fakeStorage struct {
	mu        sync.RWMutex
	m         map[string]string
	getErr    error
	setErr    map[string]error
	deleteErr map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		m:         make(map[string]string),
		setErr:    make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (f *fakeStorage) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.m[key]
	return v, ok, nil
}

func (f *fakeStorage) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setErr[key]; err != nil {
		return err
	}
	f.m[key] = value
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[key]; err != nil {
		return err
	}
	delete(f.m, key)
	return nil
}

func (f *fakeStorage) has(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.m[key]
	return ok
}

func (f *fakeStorage) value(key string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.m[key]
}

func loginOK() problem.Result[domain.LoginResult] {
	return problem.OK(domain.LoginResult{
		Tokens: domain.Tokens{AccessToken: "abc", RefreshToken: "def"},
		User:   domain.User{Name: "Shinly Eu"},
	})
}
