package hub

import "testing"

func TestRing_AppendAndEvict(t *testing.T) {
	r := newRing(3)

	for i := int64(1); i <= 5; i++ {
		r.append(Event{ID: i, Type: FileChange})
	}

	if r.len() != 3 {
		t.Fatalf("expected 3 retained events, got %d", r.len())
	}

	got := r.since(0)
	wantIDs := []int64{3, 4, 5}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d events, got %d", len(wantIDs), len(got))
	}
	for i, ev := range got {
		if ev.ID != wantIDs[i] {
			t.Errorf("position %d: expected ID %d, got %d", i, wantIDs[i], ev.ID)
		}
	}
}

func TestRing_Since(t *testing.T) {
	r := newRing(10)
	for i := int64(1); i <= 6; i++ {
		r.append(Event{ID: i})
	}

	tests := []struct {
		name  string
		after int64
		want  []int64
	}{
		{"from middle", 3, []int64{4, 5, 6}},
		{"before oldest", 0, []int64{1, 2, 3, 4, 5, 6}},
		{"at newest", 6, nil},
		{"past newest", 99, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.since(tt.after)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d events, got %d", len(tt.want), len(got))
			}
			for i, ev := range got {
				if ev.ID != tt.want[i] {
					t.Errorf("position %d: expected ID %d, got %d", i, tt.want[i], ev.ID)
				}
			}
		})
	}
}

func TestRing_Empty(t *testing.T) {
	r := newRing(5)
	if r.len() != 0 {
		t.Errorf("new ring should be empty, len = %d", r.len())
	}
	if got := r.since(0); len(got) != 0 {
		t.Errorf("empty ring should yield nothing, got %d events", len(got))
	}
}
