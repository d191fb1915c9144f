package ports

import (
	"math"
	"testing"
)

func TestPagination_Normalize(t *testing.T) {
	cases := []struct {
		in   Pagination
		want Pagination
	}{
		{Pagination{}, Pagination{Page: 1, Limit: 20}},
		{Pagination{Page: 3, Limit: 999}, Pagination{Page: 3, Limit: 100}},
		{Pagination{Page: -1, Limit: 5}, Pagination{Page: 1, Limit: 5}},
		{Pagination{Page: math.MaxInt, Limit: 50}, Pagination{Page: MaxPage, Limit: 50}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Errorf("Normalize(%+v): expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestNewPage_TotalPages(t *testing.T) {
	p := Pagination{Page: 2, Limit: 2}
	page := NewPage([]int{3, 4}, 5, p)
	if page.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", page.TotalPages)
	}
	if p.Skip() != 2 {
		t.Errorf("expected skip 2, got %d", p.Skip())
	}

	empty := NewPage[int](nil, 0, Pagination{Page: 1, Limit: 20})
	if empty.Items == nil || empty.TotalPages != 0 {
		t.Errorf("empty page should have non-nil items and zero pages: %+v", empty)
	}
}

func TestPagination_Skip_NeverNegative(t *testing.T) {
	cases := []Pagination{
		{Page: math.MaxInt64 / 50, Limit: 100},
		{Page: math.MaxInt, Limit: MaxPageLimit},
		{Page: math.MinInt, Limit: 10},
		{Page: 0, Limit: 0},
	}
	for _, p := range cases {
		if got := p.Skip(); got < 0 {
			t.Errorf("Skip(%+v) = %d, must not be negative", p, got)
		}
		if got := p.Normalize().Skip(); got < 0 {
			t.Errorf("Normalize().Skip(%+v) = %d, must not be negative", p, got)
		}
	}

	huge := Pagination{Page: math.MaxInt, Limit: MaxPageLimit}.Normalize()
	if want := int64(MaxPage-1) * MaxPageLimit; huge.Skip() != want {
		t.Errorf("expected skip %d for the last page, got %d", want, huge.Skip())
	}
}
