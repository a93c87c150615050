package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{"0.3.0", Version{0, 3, 0}, false},
		{"v1.2.3", Version{1, 2, 3}, false},
		{" 2.0.10 ", Version{2, 0, 10}, false},
		{"1.2", Version{}, true},
		{"1.x.0", Version{}, true},
		{"1.-1.0", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidVersion) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidVersion", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCheckCompatible(t *testing.T) {
	cur := Current()

	if err := CheckCompatible(""); err != nil {
		t.Errorf("CheckCompatible(\"\") = %v", err)
	}
	if err := CheckCompatible(cur.String()); err != nil {
		t.Errorf("CheckCompatible(current) = %v", err)
	}

	newer := Version{cur.Major, cur.Minor + 1, 0}
	if err := CheckCompatible(newer.String()); !errors.Is(err, ErrIncompatible) {
		t.Errorf("CheckCompatible(%s) = %v, want ErrIncompatible", newer, err)
	}

	otherMajor := Version{cur.Major + 1, 0, 0}
	if err := CheckCompatible(otherMajor.String()); !errors.Is(err, ErrIncompatible) {
		t.Errorf("CheckCompatible(%s) = %v, want ErrIncompatible", otherMajor, err)
	}
}
