package main

import (
	"context"
	"net"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/Zereker/cubewire"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		file       string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Send a file packet to every peer that connects",
		Long: `Listen for peers and send each one a file packet holding the file's
length, its base name and its contents. Peers matching a configured ban
are disconnected. Packets received from peers are logged.

Example:
  cubewire serve --config cubewire.yaml --file maps/base.ogz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := cubewire.DefaultConfig()
			if configPath != "" {
				var err error
				if config, err = cubewire.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if listen != "" {
				config.Listen = listen
				if err := config.Validate(); err != nil {
					return err
				}
			}

			logger := cubewire.NewTextLogger(cmd.ErrOrStderr(), config.Logging.Level)

			pkt, err := loadFilePacket(file)
			if err != nil {
				return err
			}

			addr, err := net.ResolveTCPAddr("tcp", config.Listen)
			if err != nil {
				return errors.Wrap(err, "resolve listen address")
			}

			reg := prometheus.NewRegistry()
			metrics := cubewire.NewMetrics(reg)

			server, err := cubewire.New(addr, append(config.ServerOptions(),
				cubewire.ServerLoggerOption(logger),
				cubewire.ServerMetricsOption(metrics),
			)...)
			if err != nil {
				return err
			}
			defer server.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler := newFileServer(ctx, pkt, logger, metrics, config.ConnOptions()...)
			logger.Info("serving file", "file", file, "bytes", pkt.Length(), "bans", len(config.Bans))

			err = server.Serve(ctx, handler)
			logTotals(logger, reg)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File to send to each peer")
	cmd.Flags().StringVar(&listen, "listen", "", "Override the configured listen address")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// loadFilePacket reads name into a packet headed by its length and base name.
func loadFilePacket(name string) (*cubewire.Packet, error) {
	f, closer, err := cubewire.OpenFile(name)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	pkt, err := cubewire.MakeFilePacket(f, "ls", filepath.Base(name))
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", name)
	}
	return pkt, nil
}

// logTotals logs the final value of every counter in reg.
func logTotals(logger cubewire.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("gather metrics", "error", err)
		return
	}
	for _, family := range families {
		var total float64
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		logger.Info("metric total", "name", family.GetName(), "value", total)
	}
}

// fileServer sends one file packet to each connection and logs what the
// peer sends back.
type fileServer struct {
	ctx     context.Context
	pkt     *cubewire.Packet
	logger  cubewire.Logger
	metrics *cubewire.Metrics
	opts    []cubewire.Option

	sync.RWMutex
	connections map[ksuid.KSUID]*cubewire.Conn
}

func newFileServer(ctx context.Context, pkt *cubewire.Packet, logger cubewire.Logger, metrics *cubewire.Metrics, opts ...cubewire.Option) *fileServer {
	return &fileServer{
		ctx:         ctx,
		pkt:         pkt,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
		connections: make(map[ksuid.KSUID]*cubewire.Conn),
	}
}

func (s *fileServer) Handle(conn *net.TCPConn) {
	var id ksuid.KSUID

	opts := append([]cubewire.Option{
		cubewire.CustomCodecOption(&cubewire.PacketCodec{}),
		cubewire.LoggerOption(s.logger),
		cubewire.MetricsOption(s.metrics),
		cubewire.OnErrorOption(func(err error) cubewire.ErrorAction {
			s.logger.Warn("connection error", "conn_id", id, "error", err)
			return cubewire.Disconnect
		}),
		cubewire.OnMessageOption(func(m cubewire.Message) error {
			s.logger.Info("packet received", "conn_id", id, "bytes", m.Length())
			return nil
		}),
	}, s.opts...)

	c, err := cubewire.NewConn(conn, opts...)
	if err != nil {
		s.logger.Error("create connection", "error", err)
		_ = conn.Close()
		return
	}
	id = c.ID()

	s.addConn(c)
	defer s.deleteConn(id)

	go func() {
		if err := c.Send(s.ctx, s.pkt); err != nil {
			s.logger.Warn("send file packet", "conn_id", id, "error", err)
		}
	}()

	if err := c.Run(s.ctx); err != nil {
		s.logger.Debug("connection finished", "conn_id", id, "error", err)
	}
}

func (s *fileServer) addConn(conn *cubewire.Conn) {
	s.Lock()
	defer s.Unlock()

	s.connections[conn.ID()] = conn
	s.logger.Info("add new conn", "conn_id", conn.ID(), "addr", conn.Addr(), "live", len(s.connections))
}

func (s *fileServer) deleteConn(id ksuid.KSUID) {
	s.Lock()
	defer s.Unlock()

	delete(s.connections, id)
}
