package record

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string // decimal string, "" means nil
	}{
		{"json number", 150000.0, "150000"},
		{"json number with cents", 1234.56, "1234.56"},
		{"int", 42, "42"},
		{"bare numeric string", "150000", "150000"},
		{"dollar sign", "$150,000.00", "150000"},
		{"thousands separators", "1,234,567", "1234567"},
		{"parenthesised negative", "($2,500.00)", "-2500"},
		{"minus negative", "-2500", "-2500"},
		{"dollar after minus", "-$2,500", "-2500"},
		{"whitespace padded", "  $99.95  ", "99.95"},
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"garbage", "N/A", ""},
		{"lone dollar sign", "$", ""},
		{"bool", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMoney(tt.in)
			if tt.want == "" {
				if got != nil {
					t.Errorf("ParseMoney(%v) = %s, want nil", tt.in, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseMoney(%v) = nil, want %s", tt.in, tt.want)
			}
			if got.String() != tt.want {
				t.Errorf("ParseMoney(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{47, 25, 2},
		{50, 25, 2},
		{51, 25, 3},
		{0, 25, 0},
		{1, 25, 1},
		{47, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.size); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestSourceIDValid(t *testing.T) {
	for _, s := range []SourceID{SourceFederal, SourceCityLobbying, SourceCityContracts} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if SourceID("state_lobbying").Valid() {
		t.Error("unknown source id should be invalid")
	}
}
