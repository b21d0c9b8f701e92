// Package sh provides the interactive host shell used by buscli.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/daqlink/sensorbus.go/pkg/host"
	"github.com/daqlink/sensorbus.go/pkg/serial"
	"github.com/daqlink/sensorbus.go/pkg/telemetry"
)

// Shell provides an ishell backed interactive host.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell

	client *host.Client
	closer io.Closer
	target string
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&TestCmd,
		&PollCmd,
		&WatchCmd,
		&RawCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps a command func requiring a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).client == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Client returns the connected client.
func (s *Shell) Client() *host.Client {
	return s.client
}

// ConnectSerial opens a serial link to a master.
func (s *Shell) ConnectSerial(device string, baud int) error {
	port, err := serial.Open(serial.Config{Device: device, Baud: baud})
	if err != nil {
		return err
	}
	s.attach(port, device)
	return nil
}

// ConnectTCP opens a TCP line link to a master.
func (s *Shell) ConnectTCP(addr string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}
	s.attach(conn, addr)
	return nil
}

func (s *Shell) attach(rwc io.ReadWriteCloser, target string) {
	s.Disconnect()
	s.client = host.NewClient(rwc)
	s.closer = rwc
	s.target = target
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", target))
}

// Disconnect closes the current link.
func (s *Shell) Disconnect() {
	if s.closer != nil {
		s.closer.Close()
		s.client, s.closer = nil, nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// PrintRecord prints a parsed record.
func (s *Shell) PrintRecord(c *ishell.Context, rec telemetry.Record) {
	if s.OutputJSON {
		vals := make(map[string]float64, len(rec))
		for _, m := range rec {
			vals[m.Name] = m.Value
		}
		out, err := json.Marshal(vals)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	for _, m := range rec {
		c.Printf("%-16s %s\n", m.Name, telemetry.FormatValue(m.Value))
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is the entrypoint of buscli.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}

var (
	// ConnectCmd connects to a master.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "serial DEVICE [BAUD] | tcp HOST:PORT",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("usage: connect serial DEVICE [BAUD] | connect tcp HOST:PORT"))
				return
			}
			var err error
			switch c.Args[0] {
			case "serial":
				baud := serial.DefaultBaud
				if len(c.Args) > 2 {
					if baud, err = strconv.Atoi(c.Args[2]); err != nil {
						c.Err(fmt.Errorf("invalid baud rate: %v", err))
						return
					}
				}
				err = s.ConnectSerial(c.Args[1], baud)
			case "tcp":
				err = s.ConnectTCP(c.Args[1])
			default:
				err = fmt.Errorf("unknown link type %q", c.Args[0])
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the current link.
	DisconnectCmd = ishell.Cmd{
		Name: "disconnect",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// TestCmd runs the liveness check.
	TestCmd = ishell.Cmd{
		Name:    "test",
		Aliases: []string{"t"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			rec, err := s.client.Test()
			if err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
			s.PrintRecord(c, rec)
		}),
	}

	// PollCmd requests one aggregated record.
	PollCmd = ishell.Cmd{
		Name:    "poll",
		Aliases: []string{"p"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			rec, err := s.client.Poll()
			if err != nil {
				c.Err(err)
				return
			}
			s.PrintRecord(c, rec)
		}),
	}

	// WatchCmd polls repeatedly.
	WatchCmd = ishell.Cmd{
		Name: "watch",
		Help: "[COUNT [INTERVAL_SEC]]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			count, interval := 10, time.Second
			var err error
			if len(c.Args) > 0 {
				if count, err = strconv.Atoi(c.Args[0]); err != nil {
					c.Err(fmt.Errorf("invalid COUNT: %v", err))
					return
				}
			}
			if len(c.Args) > 1 {
				secs, err := strconv.ParseFloat(c.Args[1], 64)
				if err != nil {
					c.Err(fmt.Errorf("invalid INTERVAL_SEC: %v", err))
					return
				}
				interval = time.Duration(secs * float64(time.Second))
			}
			for i := 0; i < count; i++ {
				rec, err := s.client.Poll()
				if err != nil {
					c.Err(err)
					return
				}
				s.PrintRecord(c, rec)
				if i+1 < count {
					time.Sleep(interval)
				}
			}
		}),
	}

	// RawCmd sends an arbitrary command line.
	RawCmd = ishell.Cmd{
		Name: "raw",
		Help: "COMMAND",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("COMMAND required"))
				return
			}
			lines, err := s.client.Do(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			for _, line := range lines {
				c.Println(line)
			}
		}),
	}
)
