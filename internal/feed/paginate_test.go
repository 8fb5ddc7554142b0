package feed

import "testing"

func TestNumPages(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{0, 1},
		{1, 1},
		{10, 1},
		{11, 2},
		{15, 2},
		{20, 2},
		{21, 3},
	}

	for _, tt := range tests {
		if got := NumPages(tt.total); got != tt.want {
			t.Errorf("NumPages(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		raw        string
		wantNumber int
		wantOffset int
		wantLimit  int
	}{
		{"absent page is page 1", 15, "", 1, 0, 10},
		{"page 2 of 15 holds the remainder", 15, "2", 2, 10, 5},
		{"page beyond the end is the last page", 15, "999", 2, 10, 5},
		{"non-integer falls back to page 1", 15, "abc", 1, 0, 10},
		{"fractional falls back to page 1", 15, "2.5", 1, 0, 10},
		{"zero is clamped to the last page", 15, "0", 2, 10, 5},
		{"negative is clamped to the last page", 15, "-1", 2, 10, 5},
		{"exact multiple keeps a full last page", 20, "2", 2, 10, 10},
		{"empty feed serves an empty first page", 0, "3", 1, 0, 0},
		{"surrounding whitespace is ignored", 25, " 3 ", 3, 20, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Paginate(tt.total, tt.raw)
			if w.Number != tt.wantNumber {
				t.Errorf("Number = %d, want %d", w.Number, tt.wantNumber)
			}
			if w.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", w.Offset, tt.wantOffset)
			}
			if w.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", w.Limit, tt.wantLimit)
			}
			if w.Total != tt.total {
				t.Errorf("Total = %d, want %d", w.Total, tt.total)
			}
		})
	}
}

func TestWindowNavigation(t *testing.T) {
	first := Paginate(25, "1")
	if first.HasPrevious() || !first.HasNext() {
		t.Errorf("page 1 of 3: HasPrevious=%v HasNext=%v", first.HasPrevious(), first.HasNext())
	}

	last := Paginate(25, "3")
	if !last.HasPrevious() || last.HasNext() {
		t.Errorf("page 3 of 3: HasPrevious=%v HasNext=%v", last.HasPrevious(), last.HasNext())
	}
	if last.Previous() != 2 {
		t.Errorf("Previous() = %d, want 2", last.Previous())
	}

	pages := last.Pages()
	if len(pages) != 3 || pages[0] != 1 || pages[2] != 3 {
		t.Errorf("Pages() = %v, want [1 2 3]", pages)
	}
}

func TestPageKey(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"", "1"},
		{"abc", "1"},
		{"2.5", "1"},
		{"1", "1"},
		{" 2 ", "2"},
		{"02", "2"},
		{"0", "0"},
		{"-3", "0"},
		{"999", "999"},
	}
	for _, tt := range tests {
		if got := PageKey(tt.raw); got != tt.want {
			t.Errorf("PageKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
