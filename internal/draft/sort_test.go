package draft

import (
	"slices"
	"testing"
)

func TestSortEntries(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "Digit runs compare numerically",
			in:   []string{"assignment_2", "assignment_10", "assignment_1"},
			want: []string{"assignment_10", "assignment_2", "assignment_1"},
		},
		{
			name: "Case is ignored",
			in:   []string{"assignment_b", "assignment_A", "assignment_C"},
			want: []string{"assignment_C", "assignment_b", "assignment_A"},
		},
		{
			name: "Mixed text and numbers",
			in:   []string{"assignment_kap2", "assignment_kap10", "assignment_kap1a"},
			want: []string{"assignment_kap10", "assignment_kap2", "assignment_kap1a"},
		},
		{
			name: "Equal suffixes fall back to the raw id",
			in:   []string{"assignment_7", "Assignment-7", "7"},
			want: []string{"assignment_7", "Assignment-7", "7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]Entry, len(tt.in))
			for i, id := range tt.in {
				entries[i] = Entry{ID: id}
			}
			SortEntries(entries)
			if got := ids(entries); !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
