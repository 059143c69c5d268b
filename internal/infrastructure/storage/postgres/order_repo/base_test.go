package order_repo

import (
	"testing"
)

func TestParseOrderBy(t *testing.T) {
	repo := NewBaseDocumentRepo[any](nil, "doc_test", []string{"id", "number", "date", "status"}, func() any { return nil })

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{name: "empty defaults to date desc", orderBy: "", want: "date DESC"},
		{name: "plain field ascending", orderBy: "number", want: "number ASC"},
		{name: "minus prefix descending", orderBy: "-date", want: "date DESC"},
		{name: "plus prefix ascending", orderBy: "+status", want: "status ASC"},
		{name: "base column always allowed", orderBy: "created_at", want: "created_at ASC"},
		{name: "unknown field rejected", orderBy: "name; DROP TABLE doc_test", wantErr: true},
		{name: "bare prefix rejected", orderBy: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.orderBy, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrderBy(%q) failed: %v", tt.orderBy, err)
			}
			if got != tt.want {
				t.Errorf("parseOrderBy(%q)\nwant: %s\ngot:  %s", tt.orderBy, tt.want, got)
			}
		})
	}
}
