package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the auto|on|off switch shared by --ui and --color.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func parseMode(flag, value string) (uiMode, error) {
	m := uiMode(strings.ToLower(strings.TrimSpace(value)))
	switch m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	}
	return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

func readUIMode(value string) (uiMode, error) { return parseMode("ui", value) }

// enabled resolves auto against stdout being a terminal.
func (m uiMode) enabled() bool {
	if m == uiModeAuto {
		return isTerminal(os.Stdout)
	}
	return m == uiModeOn
}

func shouldUseTUI(mode uiMode) bool { return mode.enabled() }

func readColorMode(value string) (bool, error) {
	m, err := parseMode("color", value)
	if err != nil {
		return false, err
	}
	return m.enabled(), nil
}
