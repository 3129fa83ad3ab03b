package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/CodedInternet/mirrorctl/onboard"
	"github.com/CodedInternet/mirrorctl/onboard/board"
	"github.com/CodedInternet/mirrorctl/onboard/control"
	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env/v6"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type EnvConfig struct {
	CONFIG   string `env:"MIRRORCTL_CONFIG" envDefault:"./board.yaml"`
	SIM      bool   `env:"MIRRORCTL_SIM" envDefault:"0"`
	DEBUG    bool   `env:"MIRRORCTL_DEBUG" envDefault:"0"`
	LOG_JSON bool   `env:"MIRRORCTL_LOG_JSON" envDefault:"0"`
}

var (
	ENV *EnvConfig
)

func init() {
	ENV = new(EnvConfig)
	env.Parse(ENV)
}

func newLogger(debug, json bool) logr.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		// logr V(1) is zap debug
		level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	if json {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zapr.NewLogger(zap.New(core))
}

func main() {
	simulated := flag.Bool("sim", ENV.SIM, "Run against simulated registers and ADC")
	filename := flag.String("config", ENV.CONFIG, "Board configuration file")
	flag.Parse()

	log := newLogger(ENV.DEBUG, ENV.LOG_JSON)

	config, err := onboard.LoadConfig(*filename)
	if err != nil {
		log.Error(err, "unable to load board config", "file", *filename)
		os.Exit(1)
	}

	var hw *onboard.Hardware
	if *simulated {
		hw, _ = onboard.SimulatedHardware(log.WithName("sim"))
	} else {
		hw, err = onboard.OpenHardware(config, log.WithName("hardware"))
		if err != nil {
			log.Error(err, "unable to initialise hardware")
			os.Exit(1)
		}
	}
	defer hw.Close()

	dispatcher := hw.NewDispatcher(config)

	shell := ishell.New()
	shell.Println("Mirror control board shell")
	shell.ShowPrompt(true)
	addCommands(shell, dispatcher)
	shell.Start()
}

func onOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true", "enable":
		return true, nil
	case "off", "0", "false", "disable":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}

func needArgs(c *ishell.Context, n int, usage string) bool {
	if len(c.Args) < n {
		c.Err(errors.New("usage: " + usage))
		return false
	}
	return true
}

func printReading(c *ishell.Context, label string, r control.Reading) {
	c.Printf("%s: mean %.4fV stddev %.4fV min %.4fV max %.4fV (%s)\n",
		label, r.Mean, r.StdDev, r.Min, r.Max, r.Home)
}

func addCommands(shell *ishell.Shell, d *control.Dispatcher) {
	ctx := context.Background()

	railNames := func([]string) []string {
		var names []string
		for _, r := range board.Rails() {
			names = append(names, r.String())
		}
		return names
	}

	shell.AddCmd(&ishell.Cmd{
		Name:      "rail",
		Completer: railNames,
		Help:      "rail <name> [on|off]",
		Func: func(c *ishell.Context) {
			if !needArgs(c, 1, "rail <name> [on|off]") {
				return
			}
			r, err := control.RailByName(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) == 1 {
				on, err := d.RailEnabled(ctx, r)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("%s: %v\n", r, on)
				return
			}
			on, err := onOff(c.Args[1])
			if err == nil {
				err = d.SetRail(ctx, r, on)
			}
			if err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "drive",
		Help: "drive <1-6> [on|off]",
		Func: func(c *ishell.Context) {
			if !needArgs(c, 1, "drive <1-6> [on|off]") {
				return
			}
			n, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) == 1 {
				st, err := d.Drive(ctx, n)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("drive %d: enabled %v fault %v\n", n, st.Enabled, st.Fault)
				return
			}
			on, err := onOff(c.Args[1])
			if err == nil {
				err = d.SetDrive(ctx, n, on)
			}
			if err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "usb",
		Help: "usb <1-7|all> [on|off]",
		Func: func(c *ishell.Context) {
			if !needArgs(c, 1, "usb <1-7|all> [on|off]") {
				return
			}
			port := 0
			if c.Args[0] != "all" {
				var err error
				if port, err = strconv.Atoi(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			if len(c.Args) == 1 {
				on, err := d.USBEnabled(ctx, port)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("usb %d: %v\n", port, on)
				return
			}
			on, err := onOff(c.Args[1])
			if err == nil {
				err = d.SetUSB(ctx, port, on)
			}
			if err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "ustep",
		Help: "ustep [1|2|4|8]",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				m, err := d.Microstep(ctx)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("microstep: %d\n", m)
				return
			}
			m, err := strconv.Atoi(c.Args[0])
			if err == nil {
				err = d.SetMicrostep(ctx, m)
			}
			if err != nil {
				c.Err(err)
			}
		},
	})

	move := func(name string, fn func(context.Context, int, int, float64) (int, error)) *ishell.Cmd {
		usage := name + " <drive 1-6> <count> <hz>"
		return &ishell.Cmd{
			Name: name,
			Help: usage,
			Func: func(c *ishell.Context) {
				if !needArgs(c, 3, usage) {
					return
				}
				drive, err1 := strconv.Atoi(c.Args[0])
				count, err2 := strconv.Atoi(c.Args[1])
				hz, err3 := strconv.ParseFloat(c.Args[2], 64)
				for _, err := range []error{err1, err2, err3} {
					if err != nil {
						c.Err(err)
						return
					}
				}
				done, err := fn(ctx, drive, count, hz)
				c.Printf("%d pulses on drive %d\n", done, drive)
				if err != nil {
					c.Err(err)
				}
			},
		}
	}
	// positive counts extend, negative retract
	shell.AddCmd(move("step", d.Step))
	shell.AddCmd(move("pulse", d.Pulse))

	shell.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "reset the commutation phase of every drive",
		Func: func(c *ishell.Context) {
			if err := d.ResetPhase(ctx); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "status",
		Func: func(c *ishell.Context) {
			st, err := d.Status(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			for i, drive := range st.Drives {
				c.Printf("drive %d: enabled %v fault %v\n", i+1, drive.Enabled, drive.Fault)
			}
			for i, on := range st.USB {
				c.Printf("usb %d: %v\n", i+1, on)
			}
			c.Printf("microstep: %d\n", st.Microstep)
			for _, r := range board.Rails() {
				c.Printf("%s: %v\n", r, st.Rails[r.String()])
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "temp",
		Help: "temp [onboard|external]",
		Func: func(c *ishell.Context) {
			sensors := []control.TempSensor{control.TempOnboard, control.TempExternal}
			labels := []string{"onboard", "external"}
			for i, s := range sensors {
				if len(c.Args) > 0 && c.Args[0] != labels[i] {
					continue
				}
				r, err := d.Temperature(ctx, s)
				if err != nil {
					c.Err(err)
					return
				}
				printReading(c, labels[i], r)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "encoder",
		Help: "encoder <1-8>",
		Func: func(c *ishell.Context) {
			if !needArgs(c, 1, "encoder <1-8>") {
				return
			}
			n, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			r, err := d.Encoder(ctx, n)
			if err != nil {
				c.Err(err)
				return
			}
			printReading(c, fmt.Sprintf("encoder %d", n), r)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "ref",
		Help:      "ref [low|mid|high]",
		Completer: func([]string) []string { return []string{"low", "mid", "high"} },
		Func: func(c *ishell.Context) {
			refs := []control.Reference{control.RefLow, control.RefMid, control.RefHigh}
			labels := []string{"low", "mid", "high"}
			for i, ref := range refs {
				if len(c.Args) > 0 && c.Args[0] != labels[i] {
					continue
				}
				r, err := d.Reference(ctx, ref)
				if err != nil {
					c.Err(err)
					return
				}
				printReading(c, "ref "+labels[i], r)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "adc",
		Help: "adc <device 1-2> <channel 0-8, 0 for all> [samples]",
		Func: func(c *ishell.Context) {
			if !needArgs(c, 2, "adc <device 1-2> <channel 0-8> [samples]") {
				return
			}
			var nums [3]int
			for i := 0; i < len(c.Args) && i < len(nums); i++ {
				v, err := strconv.Atoi(c.Args[i])
				if err != nil {
					c.Err(err)
					return
				}
				nums[i] = v
			}
			rs, err := d.ReadADC(ctx, nums[0], nums[1], nums[2])
			if err != nil {
				c.Err(err)
				return
			}
			first := nums[1]
			if first == 0 {
				first = 1
			}
			for i, r := range rs {
				printReading(c, fmt.Sprintf("adc %d ch %d", nums[0], first+i), r)
			}
		},
	})
}
