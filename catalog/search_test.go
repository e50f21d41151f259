package catalog

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/sidhant-sriv/home-catalog/models"
)

func TestSplitSearchTerms(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`milk, "whole milk"`, []string{"milk", "whole milk"}},
		{"", nil},
		{"   ", nil},
		{"milk", []string{"milk"}},
		{"milk bread", []string{"milk", "bread"}},
		{"milk,bread", []string{"milk", "bread"}},
		{"milk , , bread", []string{"milk", "bread"}},
		{",,,", nil},
		{`'sour cream' eggs`, []string{"sour cream", "eggs"}},
		{`"say \"cheese\""`, []string{`say "cheese"`}},
		{`"a\\b"`, []string{`a\b`}},
		{`""`, nil},
	}
	for _, tt := range tests {
		got := SplitSearchTerms(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitSearchTerms(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestSearchScope(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	now := time.Now()

	alice := mustUser(t, conn, "alice", false)
	home := mustGroup(t, conn, alice, "Home")
	for _, in := range []NewEntry{
		{Name: "whole milk", GroupTitles: []string{"Dairy"}},
		{Name: "oat milk"},
		{Name: "cheddar", GroupTitles: []string{"Dairy"}},
		{Name: "50% cocoa"},
		{Name: "bread"},
	} {
		if _, err := CreateEntry(ctx, conn, alice, home, in, now); err != nil {
			t.Fatalf("CreateEntry(%s): %v", in.Name, err)
		}
	}

	search := func(q string) []string {
		t.Helper()
		var defs []models.ItemDefinition
		err := conn.Model(&models.ItemDefinition{}).
			Scopes(SearchScope(SplitSearchTerms(q))).
			Order("name").
			Find(&defs).Error
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		names := make([]string, len(defs))
		for i, d := range defs {
			names[i] = d.Name
		}
		return names
	}

	tests := []struct {
		q    string
		want []string
	}{
		{"MILK", []string{"oat milk", "whole milk"}},
		{"dairy", []string{"cheddar", "whole milk"}},
		{"milk dairy", []string{"whole milk"}},
		{`"oat milk"`, []string{"oat milk"}},
		{"%", []string{"50% cocoa"}},
		{"_", []string{}},
		{"", []string{"50% cocoa", "bread", "cheddar", "oat milk", "whole milk"}},
	}
	for _, tt := range tests {
		if got := search(tt.q); !equalStrings(got, tt.want) {
			t.Errorf("search %q = %v, want %v", tt.q, got, tt.want)
		}
	}
}
