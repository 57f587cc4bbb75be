package remote_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/dmitrymomot/docvault/pkg/remote"
)

// memSession is an in-memory Session that counts Close calls.
type memSession struct {
	mu     sync.Mutex
	files  map[string][]byte
	closes int
}

func newMemSession() *memSession {
	return &memSession{files: map[string][]byte{}}
}

func notFound(op, p string) error {
	return &remote.TransportError{Kind: remote.KindNotFound, Op: op, Path: p, Err: io.EOF}
}

func (s *memSession) Size(_ context.Context, p string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[p]
	if !ok {
		return 0, notFound("size", p)
	}
	return int64(len(b)), nil
}

func (s *memSession) Retrieve(_ context.Context, p string, w io.Writer) error {
	s.mu.Lock()
	b, ok := s.files[p]
	s.mu.Unlock()
	if !ok {
		return notFound("retrieve", p)
	}
	_, err := w.Write(b)
	return err
}

func (s *memSession) Store(_ context.Context, p string, r io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	s.mu.Lock()
	s.files[p] = buf.Bytes()
	s.mu.Unlock()
	return nil
}

func (s *memSession) MakeDirAll(context.Context, string) error { return nil }

func (s *memSession) List(context.Context, string) ([]remote.Entry, error) { return nil, nil }

func (s *memSession) ModTime(_ context.Context, p string) (time.Time, error) {
	return time.Time{}, notFound("modtime", p)
}

func (s *memSession) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return nil
}

func (s *memSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// countingDialer hands out the same session and counts dials.
type countingDialer struct {
	mu      sync.Mutex
	session *memSession
	dials   int
	dialErr error
}

func (d *countingDialer) Dial(context.Context) (remote.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return d.session, nil
}

func (d *countingDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
