package validator

import "testing"

type waveInput struct {
	Timezone string `validate:"required,iana_tz"`
	Offset   int    `validate:"utc_offset"`
}

func TestCustomRules(t *testing.T) {
	val := New()

	cases := []struct {
		name  string
		input waveInput
		ok    bool
	}{
		{"new york", waveInput{Timezone: "America/New_York", Offset: -5}, true},
		{"kiritimati", waveInput{Timezone: "Pacific/Kiritimati", Offset: 14}, true},
		{"bogus zone", waveInput{Timezone: "Mars/Olympus", Offset: 0}, false},
		{"local rejected", waveInput{Timezone: "Local", Offset: 0}, false},
		{"offset too low", waveInput{Timezone: "UTC", Offset: -13}, false},
		{"offset too high", waveInput{Timezone: "UTC", Offset: 15}, false},
	}

	for _, tc := range cases {
		err := val.Struct(tc.input)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
