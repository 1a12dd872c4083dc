package sortorder

import "testing"

func TestIsValid(t *testing.T) {
	valid := []SortOrder{Relevance, Published, LastEdited, TitleAscending, TitleDescending}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", s)
		}
	}

	invalid := []SortOrder{"", "relevance", "DownloadCount", "title"}
	for _, s := range invalid {
		if s.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", s)
		}
	}
}

func TestQueryValue(t *testing.T) {
	tests := []struct {
		in   SortOrder
		want string
	}{
		{Relevance, "relevance"},
		{Published, "published"},
		{LastEdited, "lastEdited"},
		{TitleAscending, "title-asc"},
		{TitleDescending, "title-desc"},
		{"bogus", "relevance"},
	}
	for _, tc := range tests {
		if got := tc.in.QueryValue(); got != tc.want {
			t.Errorf("%q.QueryValue() = %q, want %q", tc.in, got, tc.want)
		}
	}
}
