package memory

import (
	"context"
	"sync"

	"github.com/quipper/poc/gradebook/pkg/repositories/kv"
)

// Repo is a process-local kv.Repository. Nothing survives Disconnect.
type Repo struct {
	mutex sync.RWMutex
	t     map[string]string
	// FailSet, when non-nil, is returned by every Set. Tests use it to
	// exercise rollback paths.
	FailSet error
}

var _ kv.Repository = (*Repo)(nil)

func NewRepo() *Repo {
	return &Repo{t: make(map[string]string)}
}

func (r *Repo) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, kv.ErrEmptyKey
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	v, ok := r.t[key]
	return v, ok, nil
}

func (r *Repo) Set(_ context.Context, key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.FailSet != nil {
		return r.FailSet
	}
	r.t[key] = value
	return nil
}

func (r *Repo) Health(context.Context) error { return nil }

func (r *Repo) Disconnect() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.t = make(map[string]string)
}
