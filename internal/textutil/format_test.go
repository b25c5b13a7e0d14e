package textutil

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{30, "00:00:30"},
		{315, "00:05:15"},
		{3661, "01:01:01"},
		{5445, "01:30:45"},
		{-5, "00:00:00"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(12345); got != "12,345" {
		t.Fatalf("FormatCount(12345) = %q", got)
	}
	if got := FormatCount(999); got != "999" {
		t.Fatalf("FormatCount(999) = %q", got)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "30 seconds ago"},
		{now.Add(-time.Minute - time.Second), "1 minute ago"},
		{now.Add(-2*time.Minute - time.Second), "2 minutes ago"},
		{now.Add(-time.Hour - time.Minute), "1 hour ago"},
		{now.Add(-2*time.Hour - time.Minute), "2 hours ago"},
		{now.Add(-24*time.Hour - time.Hour), "1 day ago"},
		{now.Add(-48*time.Hour - time.Hour), "2 days ago"},
	}
	for _, tc := range cases {
		if got := FormatTimeAgo(tc.at); got != tc.want {
			t.Errorf("FormatTimeAgo(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}
}
