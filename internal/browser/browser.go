// Package browser opens links, such as blame commit weblinks, in the
// desktop browser.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

var ErrNoURL = errors.New("no url to open")

// Command returns the program and arguments that open url on goos.
func Command(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", url}
	default:
		// xdg-open covers linux and the BSDs
		return "xdg-open", []string{url}
	}
}

// Opener starts the browser. Start replaces exec in tests.
type Opener struct {
	GOOS  string
	Start func(name string, args ...string) error
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

func (o Opener) Open(url string) error {
	if url == "" {
		return ErrNoURL
	}
	goos, start := o.GOOS, o.Start
	if goos == "" {
		goos = runtime.GOOS
	}
	if start == nil {
		start = startCommand
	}
	name, args := Command(goos, url)
	if err := start(name, args...); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	return nil
}

// Open opens url with the browser of the running system.
func Open(url string) error {
	return Opener{}.Open(url)
}
