// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package artwork

import (
	"image"
	"sync"

	"nowbar/logger"
)

// Cache resolves artwork references into decoded images in the
// background and keeps a bounded number of them around.
//
// When an image is requested, Cache returns it if it is cached.
// Otherwise it reports a miss and queues a fetch; when the fetch
// completes, the callback given at construction is called with the
// reference and the image, letting the caller re-render. Fetch errors are
// logged and swallowed; a failed reference simply never produces a
// callback, leaving the display in its previous state.
type Cache struct {
	mu       sync.Mutex // guards cache and order
	cache    map[string]image.Image
	pipeline chan string
	quit     func()
	order    lru
}

// NewCache sets up an artwork cache, given
//
//   - a fetcher resolving a reference to a decoded image (see Fetch)
//   - a fetched call-back, invoked off the caller's goroutine whenever a
//     queued reference has been resolved
//   - the maximum number of decoded images kept
//   - a logger for reporting fetch failures
func NewCache(
	fetcher func(string) (image.Image, error),
	fetched func(string, image.Image),
	size int,
	logger logger.LoggerInterface,
) *Cache {
	cache := make(map[string]image.Image)
	pipeline := make(chan string, 100)

	c := &Cache{
		cache:    cache,
		pipeline: pipeline,
		quit:     func() { close(pipeline) },
		order:    newLRU(size),
	}

	go func() {
		for ref := range pipeline {
			c.mu.Lock()
			_, ok := cache[ref]
			c.mu.Unlock()
			if ok {
				continue
			}

			img, err := fetcher(ref)
			if err != nil {
				logger.Printf("error fetching artwork %s: %s", ref, err)
				continue
			}

			c.mu.Lock()
			cache[ref] = img
			if remove := c.order.Touch(ref); remove != "" {
				delete(cache, remove)
			}
			c.mu.Unlock()
			fetched(ref, img)
		}
	}()

	return c
}

// Get returns a cached image for ref. On a miss it queues a fetch and
// returns ok=false; the fetched callback fires when the image is ready.
func (c *Cache) Get(ref string) (image.Image, bool) {
	c.mu.Lock()
	img, ok := c.cache[ref]
	if ok {
		c.order.Touch(ref)
	}
	c.mu.Unlock()
	if ok {
		return img, true
	}
	c.pipeline <- ref
	return nil, false
}

// Close shuts down the fetch goroutine and drops all cached images. The
// cache must not be used afterwards.
func (c *Cache) Close() {
	c.mu.Lock()
	for k := range c.cache {
		delete(c.cache, k)
	}
	c.mu.Unlock()
	c.quit()
}
