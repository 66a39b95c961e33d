package shared

import (
	"errors"
	"strings"
	"testing"
)

func TestPageURLs(t *testing.T) {
	if got := MoviePageURL(27205); got != "https://www.themoviedb.org/movie/27205" {
		t.Errorf("unexpected movie url %q", got)
	}
	if got := PersonPageURL(525); got != "https://www.themoviedb.org/person/525" {
		t.Errorf("unexpected person url %q", got)
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Run("rejects empty url", func(t *testing.T) {
		if err := OpenBrowser(""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		err := OpenBrowser("https://example.com")
		if err == nil || !strings.Contains(err.Error(), "unsupported platform: plan9") {
			t.Errorf("expected unsupported platform error, got %v", err)
		}
	})
}
