package kv

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	val      []byte
	deadline time.Time // zero = no expiry
}

// Memory is an in-process Store used in tests and local runs. TTLs are
// checked lazily against the Now func, so tests can drive a fake clock.
type Memory struct {
	mu      sync.Mutex
	strings map[string]memEntry
	lists   map[string][][]byte
	subs    map[string][]*memSub

	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		strings: make(map[string]memEntry),
		lists:   make(map[string][][]byte),
		subs:    make(map[string][]*memSub),
		Now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.strings[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.deadline.IsZero() && m.Now().After(e.deadline) {
		delete(m.strings, key)
		return nil, ErrNotFound
	}

	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memEntry{val: append([]byte(nil), val...)}
	if ttlSeconds > 0 {
		e.deadline = m.Now().Add(time.Duration(ttlSeconds) * time.Second)
	}
	m.strings[key] = e
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.strings, k)
		delete(m.lists, k)
	}
	return nil
}

func (m *Memory) LPush(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := append([]byte(nil), val...)
	m.lists[key] = append([][]byte{cp}, m.lists[key]...)
	return nil
}

func (m *Memory) LTrim(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.lists[key]
	n := int64(len(l))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if start >= n || start > stop {
		delete(m.lists, key)
		return nil
	}
	if stop >= n {
		stop = n - 1
	}
	m.lists[key] = l[start : stop+1]
	return nil
}

func (m *Memory) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.lists[key]
	n := int64(len(l))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if start >= n || start > stop {
		return nil, nil
	}
	if stop >= n {
		stop = n - 1
	}

	out := make([][]byte, 0, stop-start+1)
	for _, v := range l[start : stop+1] {
		out = append(out, append([]byte(nil), v...))
	}
	return out, nil
}

func (m *Memory) Publish(_ context.Context, channel string, payload []byte) error {
	m.mu.Lock()
	subs := append([]*memSub(nil), m.subs[channel]...)
	m.mu.Unlock()

	for _, s := range subs {
		s.deliver(Message{Channel: channel, Payload: append([]byte(nil), payload...)})
	}
	return nil
}

func (m *Memory) Subscribe(_ context.Context, channels ...string) Subscription {
	s := &memSub{
		store:    m,
		channels: channels,
		ch:       make(chan Message, 16),
	}

	m.mu.Lock()
	for _, c := range channels {
		m.subs[c] = append(m.subs[c], s)
	}
	m.mu.Unlock()

	return s
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

type memSub struct {
	store    *Memory
	channels []string

	mu     sync.Mutex
	closed bool
	ch     chan Message
}

// deliver is non-blocking: a subscriber that stopped draining loses
// messages, matching at-most-once pub/sub delivery.
func (s *memSub) deliver(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
	}
}

func (s *memSub) Events() <-chan Message { return s.ch }

func (s *memSub) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.store.mu.Lock()
	for _, c := range s.channels {
		subs := s.store.subs[c]
		for i, other := range subs {
			if other == s {
				s.store.subs[c] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	s.store.mu.Unlock()
	return nil
}
