package engine

import (
	"context"
	"testing"

	"github.com/rxscan/rx-scanner/internal/entity"
)

func TestSearchBySimilarity(t *testing.T) {
	master := []entity.MedicineRecord{
		{ID: 1, ProductName: "ロキソニン錠60mg", IngredientName: "ロキソプロフェンナトリウム水和物"},
		{ID: 2, ProductName: "ロキソマリン胃腸薬", IngredientName: "ロキソマリン"},
	}
	e := NewEngine(&fakeIndex{records: master}, testLogger())

	t.Run("tolerates a misread character", func(t *testing.T) {
		// "ェ" misread as "ユ": still one edit away from the ingredient.
		got := e.searchBySimilarity(context.Background(), "ロキソプロフユン")
		if len(got) != 1 || got[0].ID != 1 {
			t.Fatalf("got %+v, want only the loxoprofen record", got)
		}
	})

	t.Run("drops dissimilar candidates sharing the prefix", func(t *testing.T) {
		got := e.searchBySimilarity(context.Background(), "ロキソプロフェン")
		for _, r := range got {
			if r.ID == 2 {
				t.Errorf("kept %q despite low similarity", r.ProductName)
			}
		}
	})

	t.Run("short keywords are ignored", func(t *testing.T) {
		if got := e.searchBySimilarity(context.Background(), "ロキソニン"); got != nil {
			t.Errorf("got %+v, want nil for a 5-rune keyword", got)
		}
	})

	t.Run("index failure yields no candidates", func(t *testing.T) {
		failing := NewEngine(&fakeIndex{failOn: map[string]bool{"ロキソ": true}}, testLogger())
		if got := failing.searchBySimilarity(context.Background(), "ロキソプロフェン"); got != nil {
			t.Errorf("got %+v, want nil on search error", got)
		}
	})
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		s2   string
		min  float64
		max  float64
	}{
		{"identical", "アスピリン", "アスピリン", 1.0, 1.0},
		{"one substitution in eight", "ロキソプロフェン", "ロキソプロフユン", 0.80, 0.95},
		{"unrelated", "アスピリン", "ムコダイン", 0.0, 0.5},
		{"empty left", "", "アスピリン", 0.0, 0.0},
		{"empty right", "アスピリン", "", 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarity(tt.s1, tt.s2)
			if got < tt.min || got > tt.max {
				t.Errorf("similarity(%q, %q) = %.3f, want within [%.2f, %.2f]", tt.s1, tt.s2, got, tt.min, tt.max)
			}
		})
	}
}
