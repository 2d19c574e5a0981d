package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "dot separator", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "integer", input: "100", want: 10000},
		{name: "single decimal", input: "5.5", want: 550},
		{name: "third decimal rounds down", input: "12.344", want: 1234},
		{name: "third decimal rounds up", input: "12.346", want: 1235},
		{name: "negative allowed", input: "-3.50", want: -350},
		{name: "leading whitespace", input: " 7.00 ", want: 700},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "double separator", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %v", tt.input, got)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseAmount(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.want {
				t.Errorf("ParseAmount(%q) = %d cents, want %d", tt.input, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := FromCents(1000)
	b := FromCents(250)

	if got := a.Add(b); got.Cents != 1250 {
		t.Errorf("Add = %d, want 1250", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 750 {
		t.Errorf("Sub = %d, want 750", got.Cents)
	}
	if got := b.Neg(); got.Cents != -250 {
		t.Errorf("Neg = %d, want -250", got.Cents)
	}
	if !b.LessThan(a) {
		t.Error("expected 250 < 1000")
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{-5, "-0.05"},
		{0, "0.00"},
		{100000, "1000.00"},
	}
	for _, tt := range tests {
		if got := FromCents(tt.cents).String(); got != tt.want {
			t.Errorf("FromCents(%d).String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := FromCents(1).Validate(); err != nil {
		t.Errorf("positive amount should validate, got %v", err)
	}
	if err := FromCents(0).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount error = %v, want ErrInvalidAmount", err)
	}
	if err := FromCents(-100).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("negative amount error = %v, want ErrValidation", err)
	}
}
