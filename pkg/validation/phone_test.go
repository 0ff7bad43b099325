package validation

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"+46733466657", "+46733466657", false},
		{"073-346 66 57", "+46733466657", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeE164(tt.input, "46")
		if (err != nil) != tt.wantErr {
			t.Fatalf("NormalizeE164(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
