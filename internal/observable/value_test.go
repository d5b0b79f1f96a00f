package observable

import (
	"reflect"
	"testing"
)

func TestValue_SetNotifiesAfterCommit(t *testing.T) {
	v := New(1)

	var seen []int
	v.Subscribe(func(n int) {
		if got := v.Get(); got != n {
			t.Fatalf("Get() inside listener = %d, want committed %d", got, n)
		}
		seen = append(seen, n)
	})

	v.Set(2)
	v.Set(3)

	if !reflect.DeepEqual(seen, []int{2, 3}) {
		t.Fatalf("seen = %v, want [2 3]", seen)
	}
	if v.Version() != 2 {
		t.Fatalf("Version() = %d, want 2", v.Version())
	}
}

func TestValue_UpdateWithoutChangeDoesNotNotify(t *testing.T) {
	v := New("a")
	calls := 0
	v.Subscribe(func(string) { calls++ })

	changed := v.Update(func(cur string) (string, bool) { return cur, false })
	if changed {
		t.Fatal("Update reported change, want none")
	}
	if calls != 0 {
		t.Fatalf("listener called %d times, want 0", calls)
	}
}

func TestValue_UnsubscribeStopsDelivery(t *testing.T) {
	v := New(0)
	calls := 0
	unsubscribe := v.Subscribe(func(int) { calls++ })

	v.Set(1)
	unsubscribe()
	unsubscribe()
	v.Set(2)

	if calls != 1 {
		t.Fatalf("listener called %d times, want 1", calls)
	}
}

func TestValue_NestedSetSuppressesStaleDelivery(t *testing.T) {
	v := New(0)

	var first, second []int
	v.Subscribe(func(n int) {
		first = append(first, n)
		if n == 1 {
			v.Set(10)
		}
	})
	v.Subscribe(func(n int) { second = append(second, n) })

	v.Set(1)

	if !reflect.DeepEqual(first, []int{1, 10}) {
		t.Fatalf("first listener saw %v, want [1 10]", first)
	}
	// The second listener must only observe the newest value.
	if !reflect.DeepEqual(second, []int{10}) {
		t.Fatalf("second listener saw %v, want [10]", second)
	}
}
