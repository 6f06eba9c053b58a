// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Centralised store of per frame extraction metrics.

package metric

import (
	"sort"
	"sync"
	"time"
)

type ID int64

type Store struct {
	mu      sync.RWMutex
	records map[ID]Record
	next    ID
}

func NewStore() *Store {
	return &Store{
		records: make(map[ID]Record),
	}
}

func (s *Store) Insert(r Record) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[s.next] = r
	id := s.next
	s.next++

	return id
}

// GetIDs returns IDs in insertion order.
func (s *Store) GetIDs() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]ID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns all records in insertion order.
func (s *Store) Records() []Record {
	ids := s.GetIDs()
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.records[id]; ok {
			records = append(records, r)
		}
	}
	return records
}

// Record contains metrics of a single written frame.
type Record struct {
	Name        string        `csv:"name"`
	OriginalIdx uint64        `csv:"original_idx"`
	Encoding    string        `csv:"encoding"`
	ContentID   string        `csv:"content_id"`
	EncodedID   string        `csv:"encoded_id"`
	PayloadSize int           `csv:"payload_bytes"`
	EncodeTime  time.Duration `csv:"encode_ns"`
}
