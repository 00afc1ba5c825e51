// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: shell/theme.go
// Summary: Terminal theme detection: queries the background color with an
//          OSC 11 escape in raw mode and classifies it light or dark.
// Usage: Called once at backend init; the answer feeds WindowState.Theme.

package shell

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/framegrace/glint/glint"
)

// QueryTerminalTheme asks the terminal for its background color and maps
// its luminance to a theme. Defaults to dark when the terminal stays
// silent (most do when the query is unsupported).
func QueryTerminalTheme() glint.WindowTheme {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return glint.ThemeDark
	}
	defer tty.Close()

	fd := int(tty.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return glint.ThemeDark
	}
	defer term.Restore(fd, oldState)

	if _, err := tty.WriteString("\x1b]11;?\x07"); err != nil {
		return glint.ThemeDark
	}

	reply := readWithDeadline(tty, 200*time.Millisecond)
	r, g, b, ok := parseOscColor(reply)
	if !ok {
		return glint.ThemeDark
	}
	// ITU-R BT.601 luma on the 16-bit channels
	luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if luma > 0xFFFF/2 {
		return glint.ThemeLight
	}
	return glint.ThemeDark
}

func readWithDeadline(tty *os.File, d time.Duration) string {
	_ = tty.SetReadDeadline(time.Now().Add(d))
	defer tty.SetReadDeadline(time.Time{})
	buf := make([]byte, 128)
	var out strings.Builder
	for {
		n, err := tty.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			if strings.ContainsAny(out.String(), "\a") ||
				strings.Contains(out.String(), "\x1b\\") {
				break
			}
		}
		if err != nil {
			break
		}
	}
	return out.String()
}

// parseOscColor extracts the 16-bit channels from a reply of the form
// "\x1b]11;rgb:RRRR/GGGG/BBBB\a".
func parseOscColor(reply string) (r, g, b uint32, ok bool) {
	idx := strings.Index(reply, "rgb:")
	if idx < 0 {
		return 0, 0, 0, false
	}
	spec := reply[idx+len("rgb:"):]
	if end := strings.IndexAny(spec, "\a\x1b"); end >= 0 {
		spec = spec[:end]
	}
	parts := strings.Split(spec, "/")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var channels [3]uint32
	for i, p := range parts {
		var v uint32
		if _, err := fmt.Sscanf(p, "%x", &v); err != nil {
			return 0, 0, 0, false
		}
		// scale short forms (e.g. "ff") up to 16 bits
		for len(p) < 4 {
			v <<= 4
			p += "0"
		}
		channels[i] = v
	}
	return channels[0], channels[1], channels[2], true
}
