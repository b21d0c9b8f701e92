package master

import (
	"bufio"
	"context"
	"io"
	"net"

	"github.com/golang/glog"

	fx "github.com/daqlink/sensorbus.go/pkg/framework"
)

// CommandHandler handles one host command line and returns the
// reply lines. *Master implements it; bridges reuse it.
type CommandHandler interface {
	HandleCommand(line string) []string
}

// HostLink serves the newline-terminated host protocol on a single
// byte stream (serial port, TCP connection, stdio). It implements
// framework.Runnable.
type HostLink struct {
	Handler CommandHandler
	RW      io.ReadWriter
}

// Run reads command lines until the stream ends or the context is
// canceled. If RW is a Closer it is closed on cancel to unblock the
// pending read.
func (h *HostLink) Run(ctx context.Context) error {
	if closer, ok := h.RW.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, h.serve)
	}
	return fx.RunWithContextCancel(ctx, nil, h.serve)
}

func (h *HostLink) serve() error {
	sc := bufio.NewScanner(h.RW)
	for sc.Scan() {
		for _, line := range h.Handler.HandleCommand(sc.Text()) {
			if _, err := io.WriteString(h.RW, line+"\n"); err != nil {
				return err
			}
		}
	}
	return sc.Err()
}

// LineServer accepts TCP host connections and serves each with a
// HostLink. It implements framework.Runnable.
type LineServer struct {
	Listener net.Listener
	Handler  CommandHandler
}

// ListenLine creates a LineServer listening on addr.
func ListenLine(addr string, handler CommandHandler) (*LineServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &LineServer{Listener: ln, Handler: handler}, nil
}

// Run implements framework.Runnable.
func (s *LineServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Listener.Close()
	}()
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		glog.V(1).Infof("host connected: %s", conn.RemoteAddr())
		link := &HostLink{Handler: s.Handler, RW: conn}
		go func() {
			if err := link.Run(ctx); err != nil && err != context.Canceled {
				glog.V(1).Infof("host link: %v", err)
			}
		}()
	}
}
