package tokenizer

import (
	"context"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/tidwall/tinylru"
	"golang.org/x/sync/singleflight"

	"github.com/standardbeagle/magentointel/internal/cache"
	"github.com/standardbeagle/magentointel/internal/debug"
	"github.com/standardbeagle/magentointel/internal/types"
)

// PersistentCache stores JSON blobs keyed by content digest
type PersistentCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, blob []byte) error
}

type memoEntry struct {
	src    string
	tokens []types.Token
}

// CachingTokenizer memoizes full-buffer tokenizations. Fragments passed to
// Tokenize always reach the backend.
type CachingTokenizer struct {
	backend Tokenizer
	store   PersistentCache
	group   singleflight.Group

	memoCapacity int
	memo         atomic.Pointer[tinylru.LRU]
}

// NewCachingTokenizer wraps backend. memoCapacity <= 0 disables the in-memory
// memo; store may be nil.
func NewCachingTokenizer(backend Tokenizer, memoCapacity int, store PersistentCache) *CachingTokenizer {
	c := &CachingTokenizer{backend: backend, store: store, memoCapacity: memoCapacity}
	c.Forget()
	return c
}

// Tokenize tokenizes a fragment without caching
func (c *CachingTokenizer) Tokenize(ctx context.Context, src string) ([]types.Token, error) {
	return c.backend.Tokenize(ctx, src)
}

// TokenizeBuffer tokenizes a full buffer, consulting the in-memory memo and
// then the persistent cache. Concurrent calls for the same content share one
// backend invocation. The returned slice is shared and must not be modified.
func (c *CachingTokenizer) TokenizeBuffer(ctx context.Context, src string) ([]types.Token, error) {
	memoKey := xxhash.Sum64String(src)
	memo := c.memo.Load()
	if memo != nil {
		if v, ok := memo.Get(memoKey); ok {
			if e := v.(memoEntry); e.src == src {
				return e.tokens, nil
			}
		}
	}

	digest := cache.Digest(src)
	v, err, _ := c.group.Do(digest, func() (interface{}, error) {
		if tokens, ok := c.load(digest); ok {
			return tokens, nil
		}
		tokens, err := c.backend.Tokenize(ctx, src)
		if err != nil {
			return nil, err
		}
		c.save(digest, tokens)
		return tokens, nil
	})
	if err != nil {
		return nil, err
	}

	tokens := v.([]types.Token)
	if memo != nil {
		memo.Set(memoKey, memoEntry{src: src, tokens: tokens})
	}
	return tokens, nil
}

// Forget drops every in-memory memo entry
func (c *CachingTokenizer) Forget() {
	if c.memoCapacity <= 0 {
		return
	}
	memo := &tinylru.LRU{}
	memo.Resize(c.memoCapacity)
	c.memo.Store(memo)
}

func (c *CachingTokenizer) load(digest string) ([]types.Token, bool) {
	if c.store == nil {
		return nil, false
	}
	blob, ok := c.store.Get(digest)
	if !ok {
		return nil, false
	}
	var tokens []types.Token
	if err := json.Unmarshal(blob, &tokens); err != nil {
		debug.LogTokenizer("discarding unreadable cache entry %s: %v\n", digest, err)
		return nil, false
	}
	return tokens, true
}

func (c *CachingTokenizer) save(digest string, tokens []types.Token) {
	if c.store == nil {
		return
	}
	blob, err := json.Marshal(tokens)
	if err != nil {
		debug.LogTokenizer("cannot encode tokens for cache: %v\n", err)
		return
	}
	if err := c.store.Put(digest, blob); err != nil {
		debug.LogTokenizer("cannot write cache entry %s: %v\n", digest, err)
	}
}
