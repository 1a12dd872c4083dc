package catalog

import (
	"slices"
	"testing"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
)

func searchKeys(pkgs []gallery.Package, term string) []int {
	var out []int
	for p := range Search(slices.Values(pkgs), term) {
		out = append(out, p.Key)
	}
	return out
}

func TestSearch(t *testing.T) {
	pkgs := []gallery.Package{
		{Key: 1, PackageRegistration: &gallery.PackageRegistration{ID: "Newtonsoft.Json"}, Tags: "json serializer"},
		{Key: 2, PackageRegistration: &gallery.PackageRegistration{ID: "Serilog"}, Description: "Structured logging"},
		{Key: 3, Title: "Dapper", Authors: "Sam Saffron"},
		{Key: 4, Title: "Orphan"},
	}

	tests := []struct {
		name string
		term string
		want []int
	}{
		{"blank returns all", "   ", []int{1, 2, 3, 4}},
		{"empty returns all", "", []int{1, 2, 3, 4}},
		{"id match", "newtonsoft", []int{1}},
		{"case insensitive", "SERILOG", []int{2}},
		{"description", "logging", []int{2}},
		{"authors", "saffron", []int{3}},
		{"tags", "serializer", []int{1}},
		{"any word matches", "dapper logging", []int{2, 3}},
		{"no match", "nothing-here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := searchKeys(pkgs, tt.term); !slices.Equal(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestSearch_StopsEarly(t *testing.T) {
	pkgs := []gallery.Package{{Key: 1, Title: "a"}, {Key: 2, Title: "a"}}
	n := 0
	for range Search(slices.Values(pkgs), "a") {
		n++
		break
	}
	if n != 1 {
		t.Errorf("consumed %d, want 1", n)
	}
}
