package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// Memory is an in-process Store. When opened with a path every commit is
// written to that file as JSON.
type Memory struct {
	mu     sync.Mutex
	data   *dataset
	subs   map[uint64]*subscriber
	nextID uint64
	path   string
}

type subscriber struct {
	q       Query
	pending chan Result
	done    chan struct{}
	once    sync.Once
}

// push replaces any undelivered result with r. Callers hold Memory.mu so
// results arrive in commit order.
func (s *subscriber) push(r Result) {
	select {
	case <-s.pending:
	default:
	}
	s.pending <- r
}

func (s *subscriber) stop() { s.once.Do(func() { close(s.done) }) }

// NewMemory returns an empty store that keeps nothing on disk.
func NewMemory() *Memory {
	return &Memory{data: newDataset(), subs: map[uint64]*subscriber{}}
}

// Open loads path if it exists and persists every later commit to it.
func Open(path string) (*Memory, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	m := NewMemory()
	m.path = p
	b, err := os.ReadFile(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("read store: %w", err)
	}
	d := newDataset()
	if err := json.Unmarshal(b, d); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", p, err)
	}
	if d.Memes == nil {
		d.Memes = map[string]Meme{}
	}
	if d.Votes == nil {
		d.Votes = map[string]Vote{}
	}
	if d.Users == nil {
		d.Users = map[string]User{}
	}
	m.data = d
	return m, nil
}

// Path returns the backing file, or "" for a purely in-memory store.
func (m *Memory) Path() string { return m.path }

func (m *Memory) QueryOnce(ctx context.Context, q Query) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.query(q), nil
}

func (m *Memory) Subscribe(ctx context.Context, q Query, fn func(Result)) (*Subscription, error) {
	if fn == nil {
		return nil, errors.New("subscribe: nil callback")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &subscriber{q: q, pending: make(chan Result, 1), done: make(chan struct{})}
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs[id] = s
	s.push(m.data.query(q))
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
		s.stop()
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-s.done:
				return
			case r := <-s.pending:
				select {
				case <-s.done:
					return
				default:
				}
				fn(r)
			}
		}
	}()
	return &Subscription{cancel: cancel}, nil
}

func (m *Memory) Commit(ctx context.Context, muts ...Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.data.clone()
	for _, mu := range muts {
		if err := mu.apply(next); err != nil {
			return err
		}
	}
	if m.path != "" {
		if err := writeFile(m.path, next); err != nil {
			return err
		}
	}
	m.data = next
	for _, s := range m.subs {
		s.push(next.query(s.q))
	}
	return nil
}

func writeFile(path string, d *dataset) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".store-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store: %w", err)
	}
	log.Printf("store: saved %d memes to %s", len(d.Memes), path)
	return nil
}

var _ Store = (*Memory)(nil)
