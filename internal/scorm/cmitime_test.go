package scorm

import "testing"

func TestParseCMITime(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00:30", 30},
		{"00:01:00", 60},
		{"01:30:00", 5400},
		{"0000:00:01.5", 1.5},
		{"9999:00:00", 9999 * 3600},
		{"05:30", 330},
		{" 00:00:10 ", 10},
	}
	for _, c := range cases {
		got, err := ParseCMITime(c.in)
		if err != nil {
			t.Errorf("ParseCMITime(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseCMITime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseCMITimeInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		"10",
		"00:60:00",
		"00:00:60",
		"-01:00:00",
		"00:00:-5",
		"1:2:3:4",
		"12345:00:00",
	} {
		if _, err := ParseCMITime(in); err == nil {
			t.Errorf("ParseCMITime(%q): expected error", in)
		}
	}
}

func TestFormatCMITime(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00"},
		{30, "00:00:30"},
		{5400, "01:30:00"},
		{359999, "99:59:59"},
		{360000, "100:00:00"},
		{-5, "00:00:00"},
	}
	for _, c := range cases {
		if got := FormatCMITime(c.in); got != c.want {
			t.Errorf("FormatCMITime(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTimeRoundTrip(t *testing.T) {
	// 积累两段 session_time 后的 total_time 应可回显
	a, _ := ParseCMITime("00:10:00")
	b, _ := ParseCMITime("00:05:30")
	if got := FormatCMITime(a + b); got != "00:15:30" {
		t.Errorf("accumulated time = %q, want 00:15:30", got)
	}
}
