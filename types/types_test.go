package types

import (
	"encoding/json"
	"testing"
)

func TestMaxTotalReserve(t *testing.T) {
	want := "115792089237316195423570985008687907853269984665640564039457"
	if got := MaxTotalReserve.String(); got != want {
		t.Errorf("MaxTotalReserve: got %s, want %s", got, want)
	}
	if MaxUint.BigInt().BitLen() != 256 {
		t.Errorf("MaxUint bit length: got %d, want 256", MaxUint.BigInt().BitLen())
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"Zero", "0", "0", false},
		{"Plain", "123", "123", false},
		{"Spaces", " 42 ", "42", false},
		{"MaxUint", MaxUint.String(), MaxUint.String(), false},
		{"Empty", "", "", true},
		{"Negative", "-1", "", true},
		{"Fraction", "1.5", "", true},
		{"Hex", "0x10", "", true},
		{"Overflow", "115792089237316195423570985008687907853269984665640564039457584007913129639936", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMulDiv(t *testing.T) {
	// MaxTotalReserve * Scale stays within 256 bits.
	got := MulDiv(MaxTotalReserve, Scale, Scale)
	if !got.Equal(MaxTotalReserve) {
		t.Errorf("got %s, want %s", got, MaxTotalReserve)
	}

	if got := MulDiv(NewAmount(10), NewAmount(1), NewAmount(3)); !got.Equal(NewAmount(3)) {
		t.Errorf("floor(10/3): got %s, want 3", got)
	}
}

func TestSumAmounts(t *testing.T) {
	got := SumAmounts(NewAmount(1), NewAmount(2), NewAmount(3))
	if !got.Equal(NewAmount(6)) {
		t.Errorf("got %s, want 6", got)
	}
	if !SumAmounts().IsZero() {
		t.Error("empty sum should be zero")
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ratio
		wantErr bool
	}{
		{"Raw", "230000000000000000", Ratio(230000000000000000), false},
		{"RawZero", "0", ZeroRatio, false},
		{"RawFull", "1000000000000000000", FullRatio, false},
		{"Fraction", "0.23", Ratio(230000000000000000), false},
		{"FractionFull", "1.0", FullRatio, false},
		{"Percent", "23%", Ratio(230000000000000000), false},
		{"PercentSpaced", "12.5 %", Ratio(125000000000000000), false},
		{"Exponent", "5e-1", Ratio(500000000000000000), false},
		{"RawAboveScale", "1000000000000000001", 0, true},
		{"PercentAbove", "101%", 0, true},
		{"TooFine", "0.0000000000000000001", 0, true},
		{"Negative", "-0.5", 0, true},
		{"Garbage", "abc", 0, true},
		{"Empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRatio(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRatioApply(t *testing.T) {
	r := MustParseRatio("23%")
	oneEther := MustParseAmount("1000000000000000000")
	reserve := NewAmount(123).Mul(oneEther)

	want := MustParseAmount("28290000000000000000")
	if got := r.Apply(reserve); !got.Equal(want) {
		t.Errorf("23%% of 123e18: got %s, want %s", got, want)
	}

	if got := r.Apply(NewAmount(123)); !got.Equal(NewAmount(28)) {
		t.Errorf("23%% of 123: got %s, want 28", got)
	}
	if got := FullRatio.Apply(MaxTotalReserve); !got.Equal(MaxTotalReserve) {
		t.Errorf("100%% of limit: got %s", got)
	}
	if got := ZeroRatio.Apply(reserve); !got.IsZero() {
		t.Errorf("0%%: got %s", got)
	}
}

func TestRatioPercent(t *testing.T) {
	tests := []struct {
		ratio Ratio
		want  string
	}{
		{MustParseRatio("23%"), "23"},
		{MustParseRatio("12.5%"), "12.5"},
		{FullRatio, "100"},
		{ZeroRatio, "0"},
	}
	for _, tt := range tests {
		if got := tt.ratio.Percent(); got != tt.want {
			t.Errorf("Percent(%d): got %s, want %s", tt.ratio, got, tt.want)
		}
	}
}

func TestRatioPredicates(t *testing.T) {
	if !FullRatio.IsFull() || FullRatio.IsZero() {
		t.Error("FullRatio predicates wrong")
	}
	if !ZeroRatio.IsZero() || ZeroRatio.IsFull() {
		t.Error("ZeroRatio predicates wrong")
	}
	if Ratio(ScaleUint64 + 1).Valid() {
		t.Error("ratio above scale should be invalid")
	}
	if _, err := RatioFromPercent(101); err == nil {
		t.Error("expected error for 101 percent")
	}
	if r, _ := RatioFromPercent(50); r != Ratio(500000000000000000) {
		t.Errorf("RatioFromPercent(50): got %d", r)
	}
}

func TestRatioJSON(t *testing.T) {
	type wrapper struct {
		Initial Ratio `json:"initial"`
	}

	data, err := json.Marshal(wrapper{Initial: MustParseRatio("23%")})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"initial":"230000000000000000"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	for _, input := range []string{
		`{"initial":"230000000000000000"}`,
		`{"initial":230000000000000000}`,
		`{"initial":"23%"}`,
	} {
		var w wrapper
		if err := json.Unmarshal([]byte(input), &w); err != nil {
			t.Fatalf("unmarshal %s failed: %v", input, err)
		}
		if w.Initial != MustParseRatio("0.23") {
			t.Errorf("unmarshal %s: got %d", input, w.Initial)
		}
	}
}

func TestAccountIsZero(t *testing.T) {
	if !Account("").IsZero() || !Account("  ").IsZero() {
		t.Error("blank accounts should be zero")
	}
	if Account("alice").IsZero() {
		t.Error("named account should not be zero")
	}
}

func TestIsPositive(t *testing.T) {
	var uninitialised Amount
	if IsPositive(uninitialised) {
		t.Error("zero-value amount should not be positive")
	}
	if IsPositive(ZeroAmount()) {
		t.Error("zero should not be positive")
	}
	if !IsPositive(NewAmount(1)) {
		t.Error("one should be positive")
	}
}
