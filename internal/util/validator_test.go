package util

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"(11) 98888-7777", "11988887777", false},
		{"11988887777", "11988887777", false},
		{"+55 11 98888-7777", "5511988887777", false},
		{"1234", "", true},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tc := range tests {
		got, err := NormalizePhone(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizePhone(%q): esperado erro", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePhone(%q): %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, esperado %q", tc.raw, got, tc.want)
		}
	}
}
