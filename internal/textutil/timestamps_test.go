package textutil

import "testing"

func TestRemoveTimestampsSRT(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:05,000\nFirst line\n\n2\n00:00:06,000 --> 00:00:10,000\nSecond line"
	want := "First line\n\nSecond line"
	if got := RemoveTimestamps(input); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemoveTimestampsVTT(t *testing.T) {
	input := "WEBVTT\n\n00:01.000 --> 00:05.000\nHello there\n\n00:06.000 --> 00:10.000\nGoodbye"
	want := "Hello there\n\nGoodbye"
	if got := RemoveTimestamps(input); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemoveTimestampsASRMarkers(t *testing.T) {
	input := "[00:00.000 --> 00:07.000]  Welcome back\n[00:07.000 --> 00:12.500]  to the channel"
	want := "Welcome back\nto the channel"
	if got := RemoveTimestamps(input); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemoveTimestampsBracketedSeconds(t *testing.T) {
	input := "[0.0] first cue\n[5.2] second cue\n[12.5] third cue"
	want := "first cue\nsecond cue\nthird cue"
	if got := RemoveTimestamps(input); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemoveTimestampsKeepsPlainText(t *testing.T) {
	plain := "Just some text\nwithout timestamps"
	if got := RemoveTimestamps(plain); got != plain {
		t.Fatalf("plain text changed: %q", got)
	}
}

func TestRemoveTimestampsMalformedTimingKept(t *testing.T) {
	input := "1\n00:00:01 -> 00:00:05\nMalformed\n\n2\n00:00:06,000 --> 00:00:10,000\nSecond line"
	want := "1\n00:00:01 -> 00:00:05\nMalformed\n\nSecond line"
	if got := RemoveTimestamps(input); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemoveTimestampsCollapsesBlankRuns(t *testing.T) {
	input := "first\n\n\n\n\nsecond"
	want := "first\n\nsecond"
	if got := RemoveTimestamps(input); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemoveTimestampsIdempotent(t *testing.T) {
	inputs := []string{
		"1\n00:00:01,000 --> 00:00:05,000\nFirst line\n\n2\n00:00:06,000 --> 00:00:10,000\nSecond line",
		"WEBVTT\n\n00:01.000 --> 00:05.000\nHello",
		"[00:00.000 --> 00:07.000] Stacked [0.5] markers here",
		"[3.0] api style",
		"",
		"plain text only",
	}
	for _, input := range inputs {
		once := RemoveTimestamps(input)
		twice := RemoveTimestamps(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestRemoveTimestampsEmpty(t *testing.T) {
	if got := RemoveTimestamps(""); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
