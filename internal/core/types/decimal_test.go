package types

import (
	"testing"
)

func TestQuantityUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Quantity
		wantErr bool
	}{
		{name: "integer", input: `12`, want: NewQuantityFromInt(12)},
		{name: "fractional", input: `3.25`, want: Quantity(32500)},
		{name: "quoted string", input: `"0.5"`, want: Quantity(5000)},
		{name: "negative", input: `-1.1`, want: Quantity(-11000)},
		{name: "extra digits truncated", input: `1.00009`, want: Quantity(10000)},
		{name: "exponent form rejected", input: `1e3`, wantErr: true},
		{name: "quoted exponent rejected", input: `"2.5E2"`, wantErr: true},
		{name: "empty string rejected", input: `""`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			err := q.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("UnmarshalJSON(%s) = %v, want error", tt.input, q)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON(%s) failed: %v", tt.input, err)
			}
			if q != tt.want {
				t.Errorf("UnmarshalJSON(%s) = %d, want %d", tt.input, q, tt.want)
			}
		})
	}
}
