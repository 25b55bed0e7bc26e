package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"
)

// interactiveSelect lets the user move through lines with the arrow keys and
// press Enter to open the selected entry. onEnter runs with the terminal back
// in cooked mode.
func interactiveSelect(lines []string, onEnter func(i int)) {
	if len(lines) == 0 {
		return
	}
	enableVT()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return
	}
	defer func() { term.Restore(fd, oldState) }()

	reader := bufio.NewReader(os.Stdin)
	selected := 0

	redraw := func() {
		// ANSI cursor home + clear screen. Raw mode needs explicit \r.
		fmt.Print("\033[H\033[2J")
		for i, l := range lines {
			prefix := "  "
			if i == selected {
				prefix = "> "
			}
			fmt.Print(prefix + l + "\r\n")
		}
		fmt.Print("(↑/↓ to navigate, Enter to view details, Esc to quit)\r\n")
	}
	move := func(delta int) {
		if n := selected + delta; n >= 0 && n < len(lines) {
			selected = n
			redraw()
		}
	}
	// open shows the selected entry and returns to the list. It reports false
	// if raw mode could not be restored.
	open := func() bool {
		term.Restore(fd, oldState)
		fmt.Println()
		onEnter(selected)

		fmt.Print("\n(press Enter to return)")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')

		if oldState, err = term.MakeRaw(fd); err != nil {
			return false
		}
		reader = bufio.NewReader(os.Stdin)
		redraw()
		return true
	}

	redraw()
	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return
		}
		// Windows console arrow sequences: 0 or 224, then a scan code.
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			switch b2 {
			case 72:
				move(-1)
			case 80:
				move(1)
			case 13:
				if !open() {
					return
				}
			}
			continue
		}

		switch b1 {
		case 27: // ESC or CSI sequence
			if reader.Buffered() == 0 {
				fmt.Print("\r\n")
				return
			}
			if b2, _ := reader.ReadByte(); b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			switch b3, _ := reader.ReadByte(); b3 {
			case 'A':
				move(-1)
			case 'B':
				move(1)
			}
		case '\r', '\n':
			if !open() {
				return
			}
		case 3: // Ctrl-C
			fmt.Print("\r\n")
			return
		}
	}
}
