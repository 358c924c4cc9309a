//go:build !tinygo

package main

import (
	"bytes"
	"strings"
	"testing"
)

func defaults() options {
	return options{
		master: "tim2", slave: "tim3", mode: "gated",
		tickHz: 72_000_000, masterReload: 7999, slaveReload: 199, duty: 25,
		cycles: 8000,
	}
}

func TestRun_GatedSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, defaults()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "# tim2 psc=0 arr=7999 -> tim3 psc=0 arr=199 mode=gated\n") {
		t.Fatalf("header:\n%s", out)
	}
	if !strings.Contains(out, "slave_rising=5\n") {
		t.Fatalf("summary:\n%s", out)
	}
}

func TestRun_RejectsBadInput(t *testing.T) {
	cases := map[string]func(*options){
		"mode":       func(o *options) { o.mode = "pulse" },
		"duty":       func(o *options) { o.duty = 101 },
		"basic":      func(o *options) { o.slave = "tim6" },
		"same timer": func(o *options) { o.slave = "tim2" },
		"no itr":     func(o *options) { o.master, o.slave = "tim1", "tim5" },
		"slow tick":  func(o *options) { o.tickHz = 500 },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			o := defaults()
			mut(&o)
			if err := run(&bytes.Buffer{}, o); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
