package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenBrowser opens url in the user's browser. $BROWSER takes precedence over the platform
// launcher.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), url)
	if err != nil {
		return err
	}

	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func browserCommand(goos, browser, url string) (string, []string, error) {
	if browser = strings.TrimSpace(browser); browser != "" {
		return browser, []string{url}, nil
	}

	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	}
	return "", nil, fmt.Errorf("%w: no browser launcher for %s", ErrServiceUnavailable, goos)
}
