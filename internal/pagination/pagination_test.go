package pagination

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantPage int
		wantSize int
		wantErr  bool
	}{
		{name: "defaults", query: "", wantPage: 1, wantSize: 4},
		{name: "explicit", query: "page=2&page_size=3", wantPage: 2, wantSize: 3},
		{name: "clamped", query: "page_size=50", wantPage: 1, wantSize: MaxPageSize},
		{name: "zero size falls back", query: "page_size=0", wantPage: 1, wantSize: 4},
		{name: "garbage size falls back", query: "page_size=lots", wantPage: 1, wantSize: 4},
		{name: "garbage page", query: "page=abc", wantErr: true},
		{name: "zero page", query: "page=0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			p, err := Parse(q, 4)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPage) {
					t.Fatalf("expected ErrInvalidPage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Number != tt.wantPage || p.Size != tt.wantSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", p.Number, p.Size, tt.wantPage, tt.wantSize)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := (Page{Number: 1, Size: 4}).Check(0); err != nil {
		t.Errorf("first page of empty set should be valid: %v", err)
	}
	if err := (Page{Number: 2, Size: 4}).Check(5); err != nil {
		t.Errorf("page 2 of 5 rows should be valid: %v", err)
	}
	if err := (Page{Number: 3, Size: 4}).Check(8); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("page 3 of 8 rows: expected ErrInvalidPage, got %v", err)
	}
}

func TestBuildLinks(t *testing.T) {
	r := httptest.NewRequest("GET", "http://api.example/api/tasks?page=2&page_size=2", nil)

	env := Build(r, Page{Number: 2, Size: 2}, 5, []int{3, 4})

	if env.Next == nil || *env.Next != "http://api.example/api/tasks?page=3&page_size=2" {
		t.Errorf("unexpected next link: %v", env.Next)
	}
	if env.Previous == nil || *env.Previous != "http://api.example/api/tasks?page_size=2" {
		t.Errorf("unexpected previous link: %v", env.Previous)
	}

	last := Build(r, Page{Number: 3, Size: 2}, 5, []int{5})
	if last.Next != nil {
		t.Errorf("last page should have no next link, got %s", *last.Next)
	}
}
