package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/storefront/internal/docstore"
)

// recordPublisher is satisfied by *Producer; tests substitute a fake.
type recordPublisher interface {
	Publish(ctx context.Context, rec Record) error
}

// Publisher wraps a document store and puts every successful write on the
// change feed, so other instances (and watch mirrors) observe it.
type Publisher struct {
	docstore.Store
	producer recordPublisher
}

func NewPublisher(store docstore.Store, producer recordPublisher) *Publisher {
	return &Publisher{Store: store, producer: producer}
}

func (p *Publisher) Set(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := p.Store.Set(ctx, path, value); err != nil {
		return err
	}
	return p.producer.Publish(ctx, Record{
		Path:      path,
		Doc:       raw,
		ChangedAt: time.Now(),
	})
}

func (p *Publisher) Delete(ctx context.Context, path string) error {
	if err := p.Store.Delete(ctx, path); err != nil {
		return err
	}
	return p.producer.Publish(ctx, Record{
		Path:      path,
		Deleted:   true,
		ChangedAt: time.Now(),
	})
}

func (p *Publisher) Push(ctx context.Context, path string, value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	key, err := p.Store.Push(ctx, path, value)
	if err != nil {
		return "", err
	}
	err = p.producer.Publish(ctx, Record{
		Path:      path + "/" + key,
		Doc:       raw,
		ChangedAt: time.Now(),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Applier writes feed records into a local store so its watchers fire.
type Applier struct {
	target docstore.Store
}

func NewApplier(target docstore.Store) *Applier {
	return &Applier{target: target}
}

func (a *Applier) HandleRecord(ctx context.Context, rec Record) error {
	if rec.Deleted {
		return a.target.Delete(ctx, rec.Path)
	}
	return a.target.Set(ctx, rec.Path, rec.Doc)
}
