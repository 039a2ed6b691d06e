package store

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/model"
)

var ErrNotFound = errors.New("snapshot not found")

// Key identifies one respondent's progress on one survey. Sessions on
// different surveys never share a key.
type Key struct {
	Session string
	Slug    string
}

func (k Key) String() string {
	return k.Session + "/" + k.Slug
}

type Backend interface {
	Load(ctx context.Context, key Key) (model.Snapshot, error)
	Save(ctx context.Context, key Key, snap model.Snapshot) error
	Delete(ctx context.Context, key Key) error
	Close() error
}

// Binding ties a backend to a single key. It implements survey.Persister.
type Binding struct {
	backend Backend
	key     Key
}

func Bind(backend Backend, key Key) *Binding {
	return &Binding{backend: backend, key: key}
}

func (b *Binding) Restore(ctx context.Context) (model.Snapshot, bool, error) {
	snap, err := b.backend.Load(ctx, b.key)
	switch {
	case errors.Is(err, ErrNotFound):
		return model.Snapshot{}, false, nil
	case err != nil:
		return model.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (b *Binding) Save(ctx context.Context, snap model.Snapshot) error {
	return b.backend.Save(ctx, b.key, snap)
}

func (b *Binding) Discard(ctx context.Context) error {
	return b.backend.Delete(ctx, b.key)
}

func encode(snap model.Snapshot) ([]byte, error) {
	buf, err := json.Marshal(snap)
	return buf, errors.Wrap(err, "store: encode snapshot")
}

func decode(buf []byte) (model.Snapshot, error) {
	var snap model.Snapshot
	err := json.Unmarshal(buf, &snap)
	return snap, errors.Wrap(err, "store: decode snapshot")
}
