package core

import (
	"encoding/json"
	"testing"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMoneyDecimal(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1234, "12.34"},
		{-1234, "-12.34"},
		{100000, "1000.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Decimal(); got != tc.want {
			t.Fatalf("%d: got %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyJSONIsInteger(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 4500})
	if err != nil || string(b) != "4500" {
		t.Fatalf("got %s, err=%v", b, err)
	}
	var m Money
	if err := json.Unmarshal([]byte("85000"), &m); err != nil || m.Cents != 85000 {
		t.Fatalf("got %d, err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"12.34"`), &m); err == nil {
		t.Fatalf("decimal strings must not cross the boundary")
	}
}
