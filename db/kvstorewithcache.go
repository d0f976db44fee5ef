// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// kvStoreWithCache is a KVStore with a read-through LRU cache in front. Writes
// go straight to the underlying store and invalidate/refresh the cached entry,
// so readers never observe stale data.
type kvStoreWithCache struct {
	store KVStore
	cache *lru.Cache[uint64, []byte]
}

// NewKVStoreWithCache wraps the given KVStore with a read-through cache of the
// given size. A size of 0 or less returns the store unwrapped.
func NewKVStoreWithCache(kv KVStore, cacheSize int) KVStore {
	if cacheSize <= 0 {
		return kv
	}
	cache, err := lru.New[uint64, []byte](cacheSize)
	if err != nil {
		// lru.New only fails on non-positive size
		return kv
	}
	return &kvStoreWithCache{
		store: kv,
		cache: cache,
	}
}

func (kvc *kvStoreWithCache) Start(ctx context.Context) error {
	return kvc.store.Start(ctx)
}

func (kvc *kvStoreWithCache) Stop(ctx context.Context) error {
	kvc.cache.Purge()
	return kvc.store.Stop(ctx)
}

// Put inserts a <key, value> record into the underlying store and the cache
func (kvc *kvStoreWithCache) Put(namespace string, key, value []byte) error {
	if err := kvc.store.Put(namespace, key, value); err != nil {
		return err
	}
	kvc.cache.Add(cacheKey(namespace, key), value)
	return nil
}

// Get retrieves a record, hitting the cache first
func (kvc *kvStoreWithCache) Get(namespace string, key []byte) ([]byte, error) {
	ck := cacheKey(namespace, key)
	if value, ok := kvc.cache.Get(ck); ok {
		return value, nil
	}
	value, err := kvc.store.Get(namespace, key)
	if err != nil {
		return nil, err
	}
	kvc.cache.Add(ck, value)
	return value, nil
}

// Delete deletes a record from the underlying store and evicts it from the cache
func (kvc *kvStoreWithCache) Delete(namespace string, key []byte) error {
	if err := kvc.store.Delete(namespace, key); err != nil {
		return err
	}
	kvc.cache.Remove(cacheKey(namespace, key))
	return nil
}

// Commit commits a batch and evicts all touched entries from the cache
func (kvc *kvStoreWithCache) Commit(batch KVStoreBatch) error {
	// collect touched keys before commit clears the batch
	batch.Lock()
	touched := make([]uint64, 0, batch.Size())
	for i := 0; i < batch.Size(); i++ {
		write, err := batch.Entry(i)
		if err != nil {
			batch.Unlock()
			return err
		}
		touched = append(touched, cacheKey(write.namespace, write.key))
	}
	batch.Unlock()
	if err := kvc.store.Commit(batch); err != nil {
		return err
	}
	for _, ck := range touched {
		kvc.cache.Remove(ck)
	}
	return nil
}

// Filter bypasses the cache and scans the underlying store
func (kvc *kvStoreWithCache) Filter(namespace string, prefix []byte) ([][]byte, [][]byte, error) {
	return kvc.store.Filter(namespace, prefix)
}

func cacheKey(namespace string, key []byte) uint64 {
	d := xxhash.New()
	d.WriteString(namespace)
	d.WriteString(keyDelimiter)
	d.Write(key)
	return d.Sum64()
}
