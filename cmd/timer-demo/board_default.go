//go:build !(tinygo && stm32f103)

package main

import "time"

const (
	board                   = "host"
	bootDelay time.Duration = 0
)
