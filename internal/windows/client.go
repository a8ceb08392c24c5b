//go:build windows

package windows

import (
	"github.com/Norgate-AV/pbirefresh/internal/logger"
)

// Client composes the stateful Win32 helpers. Stateless calls (enumeration,
// rectangles, process ids) are package functions.
type Client struct {
	log        logger.LoggerInterface
	Window     *windowManager
	Keyboard   *keyboardInjector
	Automation *automation
}

// NewClient creates a new Windows API client. Each helper logs under its own
// component name.
func NewClient(log logger.LoggerInterface) *Client {
	return &Client{
		log:      log,
		Window:   newWindowManager(log.With("component", "window")),
		Keyboard: newKeyboardInjector(log.With("component", "keyboard")),

		Automation: newAutomation(log.With("component", "automation")),
	}
}
