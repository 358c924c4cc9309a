//go:build !tinygo

package bridge

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/tarm/serial"
)

func init() { UARTDial = dialSerial }

func dialSerial(_ context.Context, u UARTConfig) (io.ReadWriteCloser, error) {
	if u.Device == "" {
		return nil, errors.New("uart device not set")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        u.Device,
		Baud:        u.Baud,
		ReadTimeout: time.Duration(u.ReadTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}
