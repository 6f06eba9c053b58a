// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package archive

import (
	"errors"
	"sync"
)

// ErrRecordNotFound is returned by MemStore.Get for unknown names.
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateRecord is returned when record name is already taken.
var ErrDuplicateRecord = errors.New("duplicate record")

// MemStore is an in-memory Writer keeping records in write order.
type MemStore struct {
	mu      sync.RWMutex
	records []Record
	byName  map[string]int
	closed  bool
}

// Make sure MemStore implements Writer interface.
var _ Writer = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{byName: make(map[string]int)}
}

func (s *MemStore) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &WriteError{Path: "memory", Record: r.Name, Err: ErrClosed}
	}
	if _, exists := s.byName[r.Name]; exists {
		return &WriteError{Path: "memory", Record: r.Name, Err: ErrDuplicateRecord}
	}
	// Keep own copy, caller is free to reuse buffers.
	r.Data = append([]byte(nil), r.Data...)
	r.Shape = append([]uint(nil), r.Shape...)
	s.byName[r.Name] = len(s.records)
	s.records = append(s.records, r)
	return nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *MemStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *MemStore) Get(name string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byName[name]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return s.records[i], nil
}

// Records returns all records in write order.
func (s *MemStore) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

// Names returns record names in write order.
func (s *MemStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.Name)
	}
	return names
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
