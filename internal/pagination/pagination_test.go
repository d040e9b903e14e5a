package pagination

import (
	"strings"
	"testing"
)

func render(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, " ")
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{1, 3, "1 2 3"},
		{1, 1, "1"},
		{3, 5, "1 2 3 4 5"},
		{1, 10, "1 2 3 4 ... 10"},
		{3, 10, "1 2 3 4 ... 10"},
		{4, 10, "1 ... 3 4 5 ... 10"},
		{5, 10, "1 ... 4 5 6 ... 10"},
		{8, 10, "1 ... 7 8 9 10"},
		{9, 10, "1 ... 7 8 9 10"},
		{10, 10, "1 ... 7 8 9 10"},
		{3, 6, "1 2 3 4 ... 6"},
		{4, 6, "1 ... 3 4 5 6"},
		{0, 0, ""},
	}

	for _, tt := range tests {
		got := render(PageNumbers(tt.current, tt.total))
		if got != tt.want {
			t.Errorf("PageNumbers(%d, %d) = %q, want %q", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestPageNumbersAllPairs(t *testing.T) {
	for total := 1; total <= 30; total++ {
		for current := 1; current <= total; current++ {
			items := PageNumbers(current, total)
			if items[0].Page != 1 {
				t.Fatalf("(%d,%d) does not start at 1", current, total)
			}
			if items[len(items)-1].Page != total {
				t.Fatalf("(%d,%d) does not end at %d", current, total, total)
			}
			found := false
			prev := 0
			for _, it := range items {
				if it.Ellipsis {
					continue
				}
				if it.Page <= prev {
					t.Fatalf("(%d,%d) not increasing: %s", current, total, render(items))
				}
				prev = it.Page
				if it.Page == current {
					found = true
				}
			}
			if !found {
				t.Fatalf("(%d,%d) missing current page: %s", current, total, render(items))
			}
			if total > maxFull && len(items) > 7 {
				t.Fatalf("(%d,%d) window too wide: %s", current, total, render(items))
			}
		}
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count, perPage, want int
	}{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{13, 12, 2},
		{100, 12, 9},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.count, tt.perPage); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.count, tt.perPage, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		page, total, want int
	}{
		{5, 3, 3},
		{0, 3, 1},
		{2, 3, 2},
		{4, 0, 4},
	}
	for _, tt := range tests {
		if got := Clamp(tt.page, tt.total); got != tt.want {
			t.Errorf("Clamp(%d, %d) = %d, want %d", tt.page, tt.total, got, tt.want)
		}
	}
}

func TestNewWindow(t *testing.T) {
	w := NewWindow(9, 30, 12)
	if w.Page != 3 {
		t.Errorf("page = %d, want clamped 3", w.Page)
	}
	if w.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", w.TotalPages)
	}
	if !w.HasPrev || w.HasNext {
		t.Errorf("prev/next = %v/%v, want true/false", w.HasPrev, w.HasNext)
	}
	if Offset(w.Page, 12) != 24 {
		t.Errorf("offset = %d, want 24", Offset(w.Page, 12))
	}
}
