package browser

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Command returns the program and arguments that would open url. The
// BROWSER environment variable, when set, takes precedence over the OS default.
func Command(url string) (string, []string, error) {
	if b := strings.TrimSpace(os.Getenv("BROWSER")); b != "" {
		fields := strings.Fields(b)
		return fields[0], append(fields[1:], url), nil
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// Open opens the specified URL in the user's default browser.
func Open(url string) error {
	name, args, err := Command(url)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start() //nolint:gosec // user-chosen browser
}
