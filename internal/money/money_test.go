package money

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr error
	}{
		{in: "0", want: 0},
		{in: "12.34", want: 1234},
		{in: "12.5", want: 1250},
		{in: "300", want: 30000},
		{in: "-3.07", want: -307},
		{in: "0.01", want: 1},
		{in: "1.005", wantErr: ErrTooPrecise},
		{in: "abc", wantErr: ErrInvalidAmount},
		{in: "", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmountString(t *testing.T) {
	tests := map[Amount]string{
		0:     "0.00",
		1:     "0.01",
		1234:  "12.34",
		30000: "300.00",
		-307:  "-3.07",
	}
	for in, want := range tests {
		if got := in.String(); got != want {
			t.Errorf("Amount(%d).String() = %q, want %q", in, got, want)
		}
	}
}

func TestSumAndMin(t *testing.T) {
	if got := Sum(100, 250, -50); got != 300 {
		t.Errorf("Sum = %d, want 300", got)
	}
	if got := Min(7, 3); got != 3 {
		t.Errorf("Min = %d, want 3", got)
	}
	if got := Amount(-40).Abs(); got != 40 {
		t.Errorf("Abs = %d, want 40", got)
	}
}

func TestMaxTerms(t *testing.T) {
	sum := Amount(MaxTerms) * Max
	if sum <= 0 {
		t.Fatalf("MaxTerms*Max = %d overflows", sum)
	}
	if remaining := Amount(maxInt64) - sum; remaining >= Max {
		t.Errorf("MaxTerms is not tight: %d left, Max is %d", remaining, Max)
	}
}
