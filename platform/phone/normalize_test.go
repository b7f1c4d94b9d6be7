package phone

import "testing"

func TestParseE164(t *testing.T) {
	cases := []struct {
		in     string
		region string
		want   string
		ok     bool
	}{
		{"+1 650-253-0000", "US", "+16502530000", true},
		{"650 253 0000", "", "+16502530000", true},
		{"", "US", "", false},
		{"not a number", "US", "", false},
	}

	for _, tc := range cases {
		got, err := ParseE164(tc.in, tc.region)
		if tc.ok {
			if err != nil {
				t.Errorf("ParseE164(%q): unexpected error %v", tc.in, err)
				continue
			}
			if got != tc.want {
				t.Errorf("ParseE164(%q) = %q, want %q", tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("ParseE164(%q) = %q, expected error", tc.in, got)
		}
	}
}
