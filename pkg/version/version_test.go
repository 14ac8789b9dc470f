package version

import (
	"testing"

	"github.com/matzehuels/buildorder/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "0.0.0", false},
		{"1", "1.0.0", false},
		{"1.2", "1.2.0", false},
		{"3.4.5", "3.4.5", false},
		{"3.4.5.v20240101-1200", "3.4.5.v20240101-1200", false},
		{"1.0.0.qualifier_x", "1.0.0.qualifier_x", false},

		{"a.b", "", true},
		{"1.2.3.", "", true},
		{"1.2.3.bad qualifier", "", true},
		{"-1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidVersion) {
					t.Errorf("error code = %v, want INVALID_VERSION", errors.GetCode(err))
				}
				return
			}
			if v.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, v, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"2.0", "1.9.9", 1},
		{"1.10.0", "1.9.0", 1},
		{"1.0.0", "1.0.0.a", -1},
		{"1.0.0.b", "1.0.0.a", 1},
	}
	for _, tt := range tests {
		if got := Compare(MustParse(tt.a), MustParse(tt.b)); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAccessors(t *testing.T) {
	v := MustParse("4.5.6.final")
	if v.Major() != 4 || v.Minor() != 5 || v.Micro() != 6 || v.Qualifier() != "final" {
		t.Errorf("accessors = %d %d %d %q", v.Major(), v.Minor(), v.Micro(), v.Qualifier())
	}
	if !Zero.Equal(MustParse("0")) {
		t.Error("Zero should equal 0")
	}
}
