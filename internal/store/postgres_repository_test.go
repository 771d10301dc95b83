package store

import "testing"

func TestClampListWindow(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{
			name:       "zero limit falls back to default page size",
			limit:      0,
			offset:     0,
			wantLimit:  50,
			wantOffset: 0,
		},
		{
			name:       "negative limit falls back to default page size",
			limit:      -10,
			offset:     0,
			wantLimit:  50,
			wantOffset: 0,
		},
		{
			name:       "oversized limit is capped",
			limit:      5000,
			offset:     20,
			wantLimit:  100,
			wantOffset: 20,
		},
		{
			name:       "negative offset is coerced to zero",
			limit:      25,
			offset:     -3,
			wantLimit:  25,
			wantOffset: 0,
		},
		{
			name:       "in-range values pass through",
			limit:      25,
			offset:     75,
			wantLimit:  25,
			wantOffset: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLimit, gotOffset := clampListWindow(tt.limit, tt.offset)
			if gotLimit != tt.wantLimit {
				t.Fatalf("expected limit=%d, got %d", tt.wantLimit, gotLimit)
			}
			if gotOffset != tt.wantOffset {
				t.Fatalf("expected offset=%d, got %d", tt.wantOffset, gotOffset)
			}
		})
	}
}
