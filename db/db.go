// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/namechain/namechain-core/pkg/lifecycle"
)

var (
	// ErrBucketNotExist indicates certain bucket does not exist in db
	ErrBucketNotExist = errors.New("bucket not exist in DB")
	// ErrNotExist indicates certain item does not exist in the database
	ErrNotExist = errors.New("not exist in DB")
	// ErrIO indicates the generic error of DB I/O operation
	ErrIO = errors.New("DB I/O operation error")
	// ErrInvalid indicates an invalid db operation
	ErrInvalid = errors.New("invalid DB operation")
	// ErrDBNotStarted indicates the db is accessed before Start
	ErrDBNotStarted = errors.New("DB is not started")
)

// KVStore is the interface of KV store.
type KVStore interface {
	lifecycle.StartStopper

	// Put insert or update a record identified by (namespace, key)
	Put(string, []byte, []byte) error
	// Get gets a record by (namespace, key)
	Get(string, []byte) ([]byte, error)
	// Delete deletes a record by (namespace, key)
	Delete(string, []byte) error
	// Commit commits a batch atomically
	Commit(KVStoreBatch) error
	// Filter returns all <k, v> pairs under the namespace whose key carries the prefix,
	// in lexicographic key order
	Filter(namespace string, prefix []byte) ([][]byte, [][]byte, error)
}

const keyDelimiter = "."

// memKVStore is the in-memory implementation of KVStore for testing purpose
type memKVStore struct {
	mutex  sync.RWMutex
	bucket map[string]struct{}
	data   map[string][]byte
}

// NewMemKVStore instantiates an in-memory KV store
func NewMemKVStore() KVStore {
	return &memKVStore{
		bucket: make(map[string]struct{}),
		data:   make(map[string][]byte),
	}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

// Put inserts a <key, value> record
func (m *memKVStore) Put(namespace string, key, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.put(namespace, key, value)
	return nil
}

func (m *memKVStore) put(namespace string, key, value []byte) {
	m.bucket[namespace] = struct{}{}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[namespace+keyDelimiter+string(key)] = v
}

// Get retrieves a record
func (m *memKVStore) Get(namespace string, key []byte) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if _, ok := m.bucket[namespace]; !ok {
		return nil, errors.Wrapf(ErrBucketNotExist, "namespace = %s doesn't exist", namespace)
	}
	value, ok := m.data[namespace+keyDelimiter+string(key)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
	}
	return value, nil
}

// Delete deletes a record
func (m *memKVStore) Delete(namespace string, key []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.data, namespace+keyDelimiter+string(key))
	return nil
}

// Commit commits a batch
func (m *memKVStore) Commit(b KVStoreBatch) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	succeed := true
	b.Lock()
	defer func() {
		if succeed {
			b.ClearAndUnlock()
		} else {
			b.Unlock()
		}
	}()
	for i := 0; i < b.Size(); i++ {
		write, err := b.Entry(i)
		if err != nil {
			succeed = false
			return err
		}
		switch write.writeType {
		case Put:
			m.put(write.namespace, write.key, write.value)
		case Delete:
			delete(m.data, write.namespace+keyDelimiter+string(write.key))
		}
	}
	return nil
}

// Filter returns all <k, v> pairs under the namespace whose key carries the prefix
func (m *memKVStore) Filter(namespace string, prefix []byte) ([][]byte, [][]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if _, ok := m.bucket[namespace]; !ok {
		return nil, nil, errors.Wrapf(ErrBucketNotExist, "namespace = %s doesn't exist", namespace)
	}
	nsPrefix := namespace + keyDelimiter
	var keys [][]byte
	for k := range m.data {
		if len(k) < len(nsPrefix) || k[:len(nsPrefix)] != nsPrefix {
			continue
		}
		key := []byte(k[len(nsPrefix):])
		if !bytes.HasPrefix(key, prefix) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	values := make([][]byte, len(keys))
	for i, key := range keys {
		values[i] = m.data[nsPrefix+string(key)]
	}
	return keys, values, nil
}
