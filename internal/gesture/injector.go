package gesture

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"go.uber.org/zap"
)

// Injector performs host input simulation. The target is whatever
// application currently has OS focus; there is no window addressing.
type Injector interface {
	// Hotkey presses a modifier+key combination, e.g. ("ctrl", "plus")
	Hotkey(ctx context.Context, keys ...string) error
	// Press presses a single key, e.g. "Left" or "Next"
	Press(ctx context.Context, key string) error
	// Scroll scrolls vertically; positive amounts scroll up
	Scroll(ctx context.Context, amount int) error
}

// ExecInjector injects input by shelling out to the platform automation
// tool: xdotool on Linux, osascript on macOS. Key names use xdotool
// keysyms ("Left", "Prior", "plus", ...); the macOS path translates them.
type ExecInjector struct {
	logger *zap.Logger
}

// NewExecInjector creates an ExecInjector
func NewExecInjector(logger *zap.Logger) *ExecInjector {
	return &ExecInjector{logger: logger}
}

// Hotkey presses a key combination
func (i *ExecInjector) Hotkey(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("hotkey requires at least one key")
	}
	switch runtime.GOOS {
	case "darwin":
		return i.run(ctx, "osascript", "-e", macHotkeyScript(keys))
	case "linux":
		combo := keys[0]
		for _, k := range keys[1:] {
			combo += "+" + k
		}
		return i.run(ctx, "xdotool", "key", combo)
	default:
		return fmt.Errorf("input simulation not supported on %s", runtime.GOOS)
	}
}

// Press presses a single key
func (i *ExecInjector) Press(ctx context.Context, key string) error {
	return i.Hotkey(ctx, key)
}

// Scroll scrolls vertically. On Linux this clicks mouse button 4 or 5;
// the amount is reduced to a repeat count.
func (i *ExecInjector) Scroll(ctx context.Context, amount int) error {
	if amount == 0 {
		return nil
	}
	repeats := amount
	button := "4" // scroll up
	if amount < 0 {
		repeats = -amount
		button = "5" // scroll down
	}
	// One click per ~20 units keeps the motion close to a wheel notch
	repeats = (repeats + 19) / 20

	switch runtime.GOOS {
	case "darwin":
		direction := "scroll up"
		if amount < 0 {
			direction = "scroll down"
		}
		script := fmt.Sprintf(`tell application "System Events" to %s %d`, direction, repeats)
		return i.run(ctx, "osascript", "-e", script)
	case "linux":
		return i.run(ctx, "xdotool", "click", "--repeat", strconv.Itoa(repeats), button)
	default:
		return fmt.Errorf("input simulation not supported on %s", runtime.GOOS)
	}
}

// run executes the automation command, surfacing its output on failure
func (i *ExecInjector) run(ctx context.Context, name string, args ...string) error {
	i.logger.Debug("injecting host input",
		zap.String("command", name),
		zap.Strings("args", args),
	)
	if out, err := exec.CommandContext(ctx, name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("input simulation failed: %s: %w", string(out), err)
	}
	return nil
}

// macKeyCodes maps the xdotool keysyms used by the dispatch tables to
// macOS virtual key codes.
var macKeyCodes = map[string]int{
	"Left":  123,
	"Right": 124,
	"Prior": 116, // page up
	"Next":  121, // page down
	"plus":  24,
	"minus": 27,
}

// macHotkeyScript builds an osascript keystroke command from keysyms
func macHotkeyScript(keys []string) string {
	key := keys[len(keys)-1]
	modifiers := ""
	for _, k := range keys[:len(keys)-1] {
		mod := k
		if mod == "ctrl" {
			mod = "control"
		}
		if modifiers != "" {
			modifiers += ", "
		}
		modifiers += mod + " down"
	}

	var stroke string
	if code, ok := macKeyCodes[key]; ok {
		stroke = fmt.Sprintf("key code %d", code)
	} else {
		stroke = fmt.Sprintf("keystroke %q", key)
	}
	if modifiers != "" {
		stroke += fmt.Sprintf(" using {%s}", modifiers)
	}
	return fmt.Sprintf(`tell application "System Events" to %s`, stroke)
}
