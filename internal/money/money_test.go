package money

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "12.34", want: "12.34"},
		{name: "comma separator", in: "12,34", want: "12.34"},
		{name: "integer", in: "7", want: "7.00"},
		{name: "rounds half-up", in: "12.345", want: "12.35"},
		{name: "rounds down below half", in: "12.344", want: "12.34"},
		{name: "negative allowed", in: "-3.50", want: "-3.50"},
		{name: "whitespace", in: " 5.00 ", want: "5.00"},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
		{name: "two separators", in: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsZeroish(t *testing.T) {
	tests := []struct {
		name string
		m    Money
		want bool
	}{
		{name: "zero", m: Zero(), want: true},
		{name: "below epsilon", m: MustParse("0.004"), want: true},
		{name: "at epsilon", m: MustParse("0.005"), want: true},
		{name: "negative below epsilon", m: MustParse("-0.004"), want: true},
		{name: "one cent", m: New(1), want: false},
		{name: "negative cent", m: New(-1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsZeroish(); got != tt.want {
				t.Errorf("%s.IsZeroish() = %v, want %v", tt.m, got, tt.want)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := MustParse("10.00")
	b := MustParse("3.33")

	if got := a.Sub(b).String(); got != "6.67" {
		t.Errorf("10.00 - 3.33 = %s, want 6.67", got)
	}
	if got := b.Add(b).Add(b).String(); got != "9.99" {
		t.Errorf("3.33 * 3 = %s, want 9.99", got)
	}
	if a.Cmp(b) != 1 || b.Cmp(a) != -1 || a.Cmp(a) != 0 {
		t.Error("Cmp ordering is wrong")
	}
	if !a.Sub(a).IsZeroish() {
		t.Error("a - a should be zeroish")
	}
}

func TestDivFloor(t *testing.T) {
	// 10.00 / 3 floors to 3.33; remainder handling is the allocator's job.
	share := MustParse("10.00").DivFloor(3)
	if share.String() != "3.33" {
		t.Errorf("10.00 DivFloor 3 = %s, want 3.33", share)
	}
	if got := share.Mul(3).String(); got != "9.99" {
		t.Errorf("3.33 * 3 = %s, want 9.99", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Amount Money `json:"amount"`
	}

	out, err := json.Marshal(payload{Amount: MustParse("12.50")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"amount":"12.50"}` {
		t.Errorf("marshal = %s", out)
	}

	var in payload
	if err := json.Unmarshal([]byte(`{"amount":"7.25"}`), &in); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if in.Amount.String() != "7.25" {
		t.Errorf("unmarshal string = %s, want 7.25", in.Amount)
	}

	if err := json.Unmarshal([]byte(`{"amount":6}`), &in); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if in.Amount.String() != "6.00" {
		t.Errorf("unmarshal number = %s, want 6.00", in.Amount)
	}
}
