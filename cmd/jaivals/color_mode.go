package main

import (
	"fmt"
	"os"
	"strings"
)

type colorMode string

const (
	colorAuto colorMode = "auto"
	colorOn   colorMode = "on"
	colorOff  colorMode = "off"
)

func readColorMode(value string) (colorMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return colorAuto, nil
	case "on":
		return colorOn, nil
	case "off":
		return colorOff, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

func useColor(mode colorMode, f *os.File) bool {
	switch mode {
	case colorOn:
		return true
	case colorOff:
		return false
	default:
		return isTerminal(f)
	}
}

// readUIMode shares the auto|on|off vocabulary with --color.
func readUIMode(value string) (colorMode, error) {
	mode, err := readColorMode(value)
	if err != nil {
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return mode, nil
}
