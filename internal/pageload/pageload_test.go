// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pageload

import (
	"testing"

	"github.com/jeranaias/parley-tui/internal/kv"
)

func TestTracker(t *testing.T) {
	tr := New(kv.NewVolatile())
	if !tr.Fresh() {
		t.Error("new session should be fresh")
	}

	n, err := tr.Record()
	if err != nil || n != 1 {
		t.Fatalf("Record() = %d, %v; want 1", n, err)
	}
	if !tr.Fresh() {
		t.Error("first load should be fresh")
	}

	n, _ = tr.Record()
	if n != 2 || tr.Fresh() {
		t.Errorf("second load: count=%d fresh=%v", n, tr.Fresh())
	}
}

func TestTracker_CorruptValue(t *testing.T) {
	store := kv.NewVolatile()
	store.Set(kv.KeyPageLoadCount, "garbage")
	tr := New(store)

	if tr.Count() != 0 {
		t.Errorf("Count() = %d, want 0", tr.Count())
	}
	if n, _ := tr.Record(); n != 1 {
		t.Errorf("Record() = %d, want 1", n)
	}
}
