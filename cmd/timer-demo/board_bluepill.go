//go:build tinygo && stm32f103

package main

import "time"

const board = "bluepill"

// Allow the USB serial console to enumerate before printing.
const bootDelay = 2 * time.Second
