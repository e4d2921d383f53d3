// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package artwork

// lru tracks key access order for the cache. When the number of tracked
// keys exceeds the configured size, Touch reports the least recently used
// key so the caller can evict it.
type lru struct {
	lookup map[string]*node
	head   *node
	tail   *node
	size   int
}

type node struct {
	next  *node
	prev  *node
	value string
}

func newLRU(size int) lru {
	return lru{
		lookup: make(map[string]*node),
		size:   size,
	}
}

// Touch marks key as most recently used, inserting it if unknown, and
// returns the evicted key when the tracked set outgrew the size limit, or
// the empty string otherwise.
func (l *lru) Touch(key string) string {
	if n, ok := l.lookup[key]; ok {
		l.unlink(n)
		l.pushFront(n)
	} else {
		n := &node{value: key}
		l.lookup[key] = n
		l.pushFront(n)
	}

	if len(l.lookup) > l.size {
		remove := l.tail
		l.unlink(remove)
		delete(l.lookup, remove.value)
		return remove.value
	}
	return ""
}

func (l *lru) pushFront(n *node) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lru) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else if l.head == n {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if l.tail == n {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
