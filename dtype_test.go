package dfccore

import "testing"

func TestNormalizeDtype(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"int", "int64"},
		{"Integer", "int64"},
		{"float", "float64"},
		{"double", "float64"},
		{"str", "string"},
		{"TEXT", "string"},
		{" int64 ", "int64"},
		{"datetime64[ns]", "datetime64[ns]"},
		{"custom", "custom"},
	}
	for _, tt := range tests {
		if got := NormalizeDtype(tt.token); got != tt.expected {
			t.Errorf("NormalizeDtype(%q) = %q, expected %q", tt.token, got, tt.expected)
		}
	}
}

func TestDtypeCompatible(t *testing.T) {
	tests := []struct {
		actual   string
		expected string
		want     bool
	}{
		{"int64", "int64", true},
		{"int32", "int64", true},
		{"int64", "int", true},
		{"float32", "float64", true},
		{"bool", "boolean", true},
		{"object", "string", true},
		{"datetime64[ns]", "datetime64[us, UTC]", true},
		{"int64", "float64", false},
		{"string", "int64", false},
		{"datetime64[ns]", "string", false},
	}
	for _, tt := range tests {
		if got := DtypeCompatible(tt.actual, tt.expected); got != tt.want {
			t.Errorf("DtypeCompatible(%q, %q) = %v, expected %v", tt.actual, tt.expected, got, tt.want)
		}
	}
}

func TestIsDtypeNarrowing(t *testing.T) {
	ladder := []string{"int8", "int16", "int32", "int64", "float32", "float64"}

	// Every move down the width ladder narrows; every move up does not.
	for i, from := range ladder {
		for j, to := range ladder {
			narrowing := IsDtypeNarrowing(from, to)
			switch {
			case i == j:
				if narrowing {
					t.Errorf("%s -> %s: same dtype must not narrow", from, to)
				}
			case j < i:
				if !narrowing {
					t.Errorf("%s -> %s: expected narrowing", from, to)
				}
			default:
				if narrowing {
					t.Errorf("%s -> %s: widening must not narrow", from, to)
				}
			}
		}
	}

	tests := []struct {
		old  string
		new  string
		want bool
	}{
		{"float64", "int64", true},
		{"datetime64[ns]", "string", true},
		{"string", "int64", true}, // unknown changes count as narrowing
		{"int", "int64", false},   // synonym, no actual change
		{"double", "float64", false},
	}
	for _, tt := range tests {
		if got := IsDtypeNarrowing(tt.old, tt.new); got != tt.want {
			t.Errorf("IsDtypeNarrowing(%q, %q) = %v, expected %v", tt.old, tt.new, got, tt.want)
		}
	}
}
