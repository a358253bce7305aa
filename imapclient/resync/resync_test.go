package resync

import (
	"reflect"
	"sort"
	"testing"
)

func TestDiff_AddedAndRemoved(t *testing.T) {
	cached := []uint32{1, 2, 3, 5}
	current := []uint32{2, 3, 4, 6}

	added, removed := Diff(cached, current)
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })

	if !reflect.DeepEqual(added, []uint32{4, 6}) {
		t.Fatalf("added: got %v", added)
	}
	if !reflect.DeepEqual(removed, []uint32{1, 5}) {
		t.Fatalf("removed: got %v", removed)
	}
}

func TestDiff_NoChange(t *testing.T) {
	uids := []uint32{10, 20, 30}
	added, removed := Diff(uids, uids)
	if len(added) != 0 || len(removed) != 0 {
		t.Fatalf("expected no diff, got added=%v removed=%v", added, removed)
	}
}

func TestDiff_EmptyCache(t *testing.T) {
	added, removed := Diff(nil, []uint32{1, 2, 3})
	if len(removed) != 0 {
		t.Fatalf("expected no removals from an empty cache, got %v", removed)
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	if !reflect.DeepEqual(added, []uint32{1, 2, 3}) {
		t.Fatalf("got %v", added)
	}
}
