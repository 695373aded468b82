package bus

import (
	"testing"

	"scenetune/internal/param"
)

func TestPublishOrder(t *testing.T) {
	t.Parallel()
	b := New()

	var got []string
	b.Subscribe(func(e Event) { got = append(got, "first:"+e.Name) })
	b.Subscribe(func(e Event) { got = append(got, "second:"+e.Name) })

	b.Publish([]Event{
		{Name: "a", Source: SourceCommit},
		{Name: "b", Source: SourceCommit},
	})

	want := []string{"first:a", "second:a", "first:b", "second:b"}
	if len(got) != len(want) {
		t.Fatalf("deliveries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivery[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEventPayload(t *testing.T) {
	t.Parallel()
	b := New()

	var got Event
	b.Subscribe(func(e Event) { got = e })
	b.Publish([]Event{{
		Name:   "wave_speed",
		Old:    param.FloatValue(300),
		New:    param.FloatValue(275.5),
		Source: SourceUndo,
	}})

	if got.Name != "wave_speed" || got.Source != SourceUndo {
		t.Errorf("event = %+v", got)
	}
	if !got.Old.Equal(param.FloatValue(300)) || !got.New.Equal(param.FloatValue(275.5)) {
		t.Errorf("values = %v -> %v", got.Old, got.New)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()
	b := New()

	calls := 0
	sub := b.Subscribe(func(Event) { calls++ })
	keep := 0
	b.Subscribe(func(Event) { keep++ })

	b.Publish([]Event{{Name: "a"}})
	sub.Cancel()
	sub.Cancel() // idempotent
	b.Publish([]Event{{Name: "b"}})

	if calls != 1 {
		t.Errorf("cancelled listener called %d times, want 1", calls)
	}
	if keep != 2 {
		t.Errorf("remaining listener called %d times, want 2", keep)
	}
}

func TestPublishNoListeners(t *testing.T) {
	t.Parallel()
	b := New()
	b.Publish([]Event{{Name: "a"}}) // must not panic
}
