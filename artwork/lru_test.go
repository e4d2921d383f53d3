// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package artwork

import "testing"

func TestLRUNoEvictionUnderLimit(t *testing.T) {
	l := newLRU(3)
	for _, k := range []string{"a", "b", "c"} {
		if evicted := l.Touch(k); evicted != "" {
			t.Errorf("unexpected eviction of %q", evicted)
		}
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	l := newLRU(2)
	l.Touch("a")
	l.Touch("b")
	if evicted := l.Touch("c"); evicted != "a" {
		t.Errorf("expected %q evicted, got %q", "a", evicted)
	}
}

func TestLRUTouchRefreshesAge(t *testing.T) {
	l := newLRU(2)
	l.Touch("a")
	l.Touch("b")
	l.Touch("a") // a is now newer than b
	if evicted := l.Touch("c"); evicted != "b" {
		t.Errorf("expected %q evicted, got %q", "b", evicted)
	}
}

func TestLRURepeatedTouchSingleKey(t *testing.T) {
	l := newLRU(1)
	l.Touch("a")
	if evicted := l.Touch("a"); evicted != "" {
		t.Errorf("touching the only key must not evict it, got %q", evicted)
	}
	if evicted := l.Touch("b"); evicted != "a" {
		t.Errorf("expected %q evicted, got %q", "a", evicted)
	}
}
