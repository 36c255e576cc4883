package main

import "testing"

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{1024 * 1024 * 1024, "1.0 GiB"},
	}
	for _, c := range cases {
		if got := formatBytes(c.in); got != c.want {
			t.Errorf("formatBytes(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(0); got != "--" {
		t.Errorf("formatDuration(0) = %q, want --", got)
	}
	if got := formatDuration(-5); got != "--" {
		t.Errorf("formatDuration(-5) = %q, want --", got)
	}
	if got := formatDuration(65); got != "1m5s" {
		t.Errorf("formatDuration(65) = %q, want 1m5s", got)
	}
}

func TestConsoleObserverFinishedClosesDone(t *testing.T) {
	o := newConsoleObserver()
	select {
	case <-o.done:
		t.Fatal("done channel closed before finish")
	default:
	}

	o.OnProcessFinished("completed 3 of 3 files")

	select {
	case <-o.done:
	default:
		t.Fatal("expected done channel to be closed after OnProcessFinished")
	}
}

func TestJSONObserverFinishedClosesDone(t *testing.T) {
	o := newJSONObserver()
	select {
	case <-o.done:
		t.Fatal("done channel closed before finish")
	default:
	}

	o.OnProcessFinished("cancelled after 1 of 3 files")

	select {
	case <-o.done:
	default:
		t.Fatal("expected done channel to be closed after OnProcessFinished")
	}
}
