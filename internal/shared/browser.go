package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

const tmdbWebURL = "https://www.themoviedb.org"

var getRuntime = func() string { return runtime.GOOS }

// MoviePageURL returns the themoviedb.org page for a movie.
func MoviePageURL(id int) string {
	return fmt.Sprintf("%s/movie/%d", tmdbWebURL, id)
}

// PersonPageURL returns the themoviedb.org page for a person.
func PersonPageURL(id int) string {
	return fmt.Sprintf("%s/person/%d", tmdbWebURL, id)
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	if url == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidArgument)
	}

	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
