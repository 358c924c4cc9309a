//go:build !tinygo

// Command timer-trace runs the master/slave timer pair on the simulated
// STM32F1 board and prints every output level change. The trace goes to
// stdout or, with -port, to a serial port.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tarm/serial"

	"timercore/timer"
	"timercore/timer/sim"
	"timercore/timer/stm32"
)

type options struct {
	master, slave timer.ID
	mode          string
	tickHz        uint
	masterReload  uint
	slaveReload   uint
	duty          uint
	cycles        uint64
	port          string
	baud          int
}

func main() {
	var o options
	var master, slave string
	flag.StringVar(&master, "master", "tim2", "master timer")
	flag.StringVar(&slave, "slave", "tim3", "slave timer")
	flag.StringVar(&o.mode, "mode", "gated", "slave mode: gated, trigger or reset")
	flag.UintVar(&o.tickHz, "tick", uint(stm32.SysClockHz), "counter tick frequency in Hz for both timers")
	flag.UintVar(&o.masterReload, "master-reload", 7999, "master auto-reload value")
	flag.UintVar(&o.slaveReload, "slave-reload", 199, "slave auto-reload value; the slave toggles on it")
	flag.UintVar(&o.duty, "duty", 25, "master trigger duty in percent")
	flag.Uint64Var(&o.cycles, "cycles", 16000, "input clock cycles to simulate")
	flag.StringVar(&o.port, "port", "", "write the trace to this serial port instead of stdout")
	flag.IntVar(&o.baud, "baud", 115200, "serial baud rate")
	flag.Parse()
	o.master, o.slave = timer.ID(master), timer.ID(slave)

	out, closeOut, err := openOutput(o.port, o.baud)
	if err != nil {
		fmt.Fprintln(os.Stderr, "timer-trace:", err)
		os.Exit(1)
	}
	defer closeOut()

	w := bufio.NewWriter(out)
	err = run(w, o)
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "timer-trace:", err)
		os.Exit(1)
	}
}

func openOutput(port string, baud int) (io.Writer, func(), error) {
	if port == "" {
		return os.Stdout, func() {}, nil
	}
	p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud, ReadTimeout: 100 * time.Millisecond})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", port, err)
	}
	return p, func() { _ = p.Close() }, nil
}

// build configures and starts the pair on b.
func build(b *sim.Board, o options) (*timer.Pair, error) {
	mode, ok := timer.ParseSlaveMode(o.mode)
	if !ok {
		return nil, fmt.Errorf("unknown slave mode %q", o.mode)
	}
	if o.tickHz > 0xFFFFFFFF || o.masterReload > timer.MaxReload || o.slaveReload > timer.MaxReload || o.duty > 100 {
		return nil, fmt.Errorf("tick, reload or duty out of range")
	}
	mregs, err := b.Claim("timer-trace", o.master)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.master, err)
	}
	sregs, err := b.Claim("timer-trace", o.slave)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.slave, err)
	}

	master, err := timer.New(mregs, timer.Config{Clock: b.Clock(), Master: &timer.MasterFeature{Channel: 1}})
	if err != nil {
		return nil, fmt.Errorf("master: %w", err)
	}
	slave, err := timer.New(sregs, timer.Config{Clock: b.Clock(), Slave: true})
	if err != nil {
		return nil, fmt.Errorf("slave: %w", err)
	}
	if err := master.SetTimebaseByFrequency(uint32(o.tickHz), uint16(o.masterReload)); err != nil {
		return nil, fmt.Errorf("master timebase: %w", err)
	}
	if err := master.InitPWM(1, uint8(o.duty), timer.ActiveHigh); err != nil {
		return nil, fmt.Errorf("master channel: %w", err)
	}
	if err := slave.SetTimebaseByFrequency(uint32(o.tickHz), uint16(o.slaveReload)); err != nil {
		return nil, fmt.Errorf("slave timebase: %w", err)
	}
	if err := slave.InitToggle(1, uint16(o.slaveReload), timer.ActiveHigh); err != nil {
		return nil, fmt.Errorf("slave channel: %w", err)
	}
	link, err := timer.NewTriggerLink(master, 1, slave, mode)
	if err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	pair, err := timer.NewPair(master, slave, link)
	if err != nil {
		return nil, err
	}
	if err := pair.Start(); err != nil {
		return nil, err
	}
	return pair, nil
}

func run(w io.Writer, o options) error {
	b := stm32.NewSimBoard()
	pair, err := build(b, o)
	if err != nil {
		return err
	}
	mt, _ := b.Timer(pair.Master().ID())
	st, _ := b.Timer(pair.Slave().ID())

	mtb, stb := pair.Master().Timebase(), pair.Slave().Timebase()
	fmt.Fprintf(w, "# %s psc=%d arr=%d -> %s psc=%d arr=%d mode=%s\n",
		mt.ID(), mtb.Prescaler, mtb.Reload, st.ID(), stb.Prescaler, stb.Reload, pair.Link().Mode())

	probe, err := sim.NewProbe(b, st, 1, 1)
	if err != nil {
		return err
	}
	mlv, slv := mt.Output(1), st.Output(1)
	for i := uint64(0); i < o.cycles; i++ {
		if err := probe.Run(1); err != nil {
			return err
		}
		m, s := mt.Output(1), probe.Level()
		if m != mlv || s != slv {
			fmt.Fprintf(w, "%d master=%d slave=%d cnt=%d\n", b.Now(), bit(m), bit(s), st.Counter())
			mlv, slv = m, s
		}
	}
	fmt.Fprintf(w, "# cycles=%d master_wraps=%d slave_wraps=%d slave_rising=%d\n",
		b.Now(), mt.Wraps(), st.Wraps(), probe.RisingEdges())
	return pair.Stop()
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
