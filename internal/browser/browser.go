// Package browser opens UniCrew web pages in the default browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// OpenURL opens url in the default web browser, falling back to
// platform-specific commands when the portable path fails.
func OpenURL(url string) error {
	if err := open.Run(url); err != nil {
		log.Debugf("browser: open-golang failed: %v, trying platform commands", err)
		return openPlatform(url)
	}
	return nil
}

// IsAvailable reports whether a browser opener exists on this system.
func IsAvailable() bool {
	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	default:
		_, err := exec.LookPath("xdg-open")
		return err == nil
	}
}

func openPlatform(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("browser: open %s: %w", url, err)
	}
	return nil
}
