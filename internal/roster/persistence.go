package roster

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/quipper/poc/gradebook/pkg/common/logger"
	"github.com/quipper/poc/gradebook/pkg/repositories/kv"
)

// DefaultKey is the storage key the roster lives under.
const DefaultKey = "students"

// Persister loads and saves a whole roster.
type Persister interface {
	Load(ctx context.Context) (Roster, error)
	Save(ctx context.Context, r Roster) error
}

// Persistence stores the roster as one JSON array under a single kv key.
type Persistence struct {
	repo kv.Repository
	key  string
}

var _ Persister = (*Persistence)(nil)

// NewPersistence uses DefaultKey when key is empty.
func NewPersistence(repo kv.Repository, key string) *Persistence {
	if key == "" {
		key = DefaultKey
	}
	return &Persistence{repo: repo, key: key}
}

// Key returns the storage key.
func (p *Persistence) Key() string { return p.key }

// Load returns an empty roster when the key is absent or holds something
// that does not decode as a student array. Only storage errors are returned.
func (p *Persistence) Load(ctx context.Context) (Roster, error) {
	raw, ok, err := p.repo.Get(ctx, p.key)
	if err != nil {
		return nil, errors.Wrap(err, "loading roster")
	}
	if !ok {
		logger.Debug("roster key %q not found, starting empty", p.key)
		return Roster{}, nil
	}
	var r Roster
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		logger.Warn("roster key %q holds unparsable data, starting empty: %v", p.key, err)
		return Roster{}, nil
	}
	if r == nil {
		r = Roster{}
	}
	logger.Debug("loaded %d students from key %q", len(r), p.key)
	return r, nil
}

// Save overwrites the key with the full roster.
func (p *Persistence) Save(ctx context.Context, r Roster) error {
	if r == nil {
		r = Roster{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encoding roster")
	}
	return errors.Wrap(p.repo.Set(ctx, p.key, string(b)), "saving roster")
}
