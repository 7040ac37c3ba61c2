package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrHookNotInstalled indicates the pre-commit hook is absent or owned by
// something else.
var ErrHookNotInstalled = errors.New("guard hook not installed")

const (
	hookName   = "pre-commit"
	backupName = "pre-commit.ghswitch.bak"

	// hookMarker identifies hooks we wrote. A pre-commit without it is
	// somebody else's and is never overwritten in place.
	hookMarker = "# ghswitch guard hook"
)

var hookScript = "#!/bin/sh\n" + hookMarker + "\nexec ghs guard\n"

// HookState describes what occupies the pre-commit slot.
type HookState int

const (
	// HookMissing means no pre-commit hook exists.
	HookMissing HookState = iota
	// HookInstalled means our hook is in place.
	HookInstalled
	// HookForeign means a pre-commit hook exists that we did not write.
	HookForeign
)

func (s HookState) String() string {
	switch s {
	case HookInstalled:
		return "installed"
	case HookForeign:
		return "foreign"
	default:
		return "missing"
	}
}

// CheckHook reports what currently occupies hooksDir's pre-commit slot.
func CheckHook(hooksDir string) HookState {
	data, err := os.ReadFile(filepath.Join(hooksDir, hookName)) //nolint:gosec // G304: path comes from git config
	if err != nil {
		return HookMissing
	}
	if strings.Contains(string(data), hookMarker) {
		return HookInstalled
	}
	return HookForeign
}

// InstallHook writes the guard pre-commit hook into hooksDir. A foreign
// hook is moved aside to pre-commit.ghswitch.bak first; backedUp reports
// whether that happened. Reinstalling over our own hook is a no-op rewrite.
func InstallHook(hooksDir string) (backedUp bool, err error) {
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return false, fmt.Errorf("creating hooks directory: %w", err)
	}

	path := filepath.Join(hooksDir, hookName)
	if CheckHook(hooksDir) == HookForeign {
		if err := os.Rename(path, filepath.Join(hooksDir, backupName)); err != nil {
			return false, fmt.Errorf("backing up existing hook: %w", err)
		}
		backedUp = true
	}

	if err := os.WriteFile(path, []byte(hookScript), 0o755); err != nil { //nolint:gosec // G306: hooks must be executable
		return backedUp, fmt.Errorf("writing hook: %w", err)
	}
	return backedUp, nil
}

// UninstallHook removes the guard hook and restores any backup that
// install moved aside; restored reports whether it did. Foreign hooks are
// left alone and reported as not installed.
func UninstallHook(hooksDir string) (restored bool, err error) {
	if CheckHook(hooksDir) != HookInstalled {
		return false, ErrHookNotInstalled
	}

	path := filepath.Join(hooksDir, hookName)
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("removing hook: %w", err)
	}

	backup := filepath.Join(hooksDir, backupName)
	if _, err := os.Stat(backup); err == nil {
		if err := os.Rename(backup, path); err != nil {
			return false, fmt.Errorf("restoring previous hook: %w", err)
		}
		restored = true
	}
	return restored, nil
}
