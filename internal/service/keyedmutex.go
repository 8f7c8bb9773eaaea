package service

import (
	"hash/fnv"
	"sync"
)

const lockShards = 64

// keyedMutex serializes work per key with a fixed set of shards. Keys
// hashing to different shards proceed independently.
type keyedMutex struct {
	shards [lockShards]sync.Mutex
}

func (k *keyedMutex) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &k.shards[h.Sum32()%lockShards]
	mu.Lock()
	return mu
}
