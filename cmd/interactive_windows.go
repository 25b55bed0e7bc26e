//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableVT switches the console to virtual terminal mode so the picker's
// arrow keys arrive as ANSI sequences and its redraws are interpreted.
func enableVT() {
	addConsoleMode(os.Stdin, windows.ENABLE_VIRTUAL_TERMINAL_INPUT)
	addConsoleMode(os.Stdout, windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
}

// addConsoleMode sets flag on f's console. Redirected handles have no
// console mode and are left alone.
func addConsoleMode(f *os.File, flag uint32) {
	h := windows.Handle(f.Fd())
	var mode uint32
	if windows.GetConsoleMode(h, &mode) != nil {
		return
	}
	_ = windows.SetConsoleMode(h, mode|flag)
}
