package livestatus

import (
	"context"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"net"
	"os"
	"sync"
	"time"
)

// ServerOptions define user configurable options of the livestatus server.
type ServerOptions struct {
	// Threads limits the number of connections answered concurrently.
	// Further connections are queued.
	Threads      int           `yaml:"threads"       default:"10"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"  default:"5m"`
	QueryTimeout time.Duration `yaml:"query_timeout" default:"10s"`
}

// Validate checks constraints in the supplied server options and returns an error if they are violated.
func (o *ServerOptions) Validate() error {
	if o.Threads < 1 {
		return errors.New("threads must be at least 1")
	}
	if o.IdleTimeout < 0 || o.QueryTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}

	return nil
}

// Server accepts livestatus connections and lets an Engine answer their requests.
type Server struct {
	engine  *Engine
	stats   *Stats
	options ServerOptions
	logger  *zap.SugaredLogger

	threads *semaphore.Weighted
}

// NewServer returns a new Server. stats may be nil.
func NewServer(engine *Engine, stats *Stats, options ServerOptions, logger *zap.SugaredLogger) *Server {
	return &Server{
		engine:  engine,
		stats:   stats,
		options: options,
		logger:  logger,
		threads: semaphore.NewWeighted(int64(options.Threads)),
	}
}

// Serve accepts connections from l until ctx is done or l fails.
// It closes l and waits for all connections to end before returning.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()
	defer func() { _ = l.Close() }()

	s.logger.Infof("Listening on %s", l.Addr())

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Warnw("Can't accept connection", zap.Error(err))
				continue
			}

			return errors.Wrap(err, "can't accept connection")
		}

		if s.stats != nil {
			s.stats.ConnectionQueued()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := s.threads.Acquire(ctx, 1); err != nil {
		if s.stats != nil {
			s.stats.ConnectionAbandoned()
		}

		return
	}
	defer s.threads.Release(1)

	if s.stats != nil {
		s.stats.ConnectionStarted()
		defer s.stats.ConnectionDone()
	}

	in := NewInputBuffer(conn, s.options.IdleTimeout, s.options.QueryTimeout)
	out := NewOutputBuffer(s.logger)

	for {
		keepAlive := s.engine.AnswerRequest(ctx, in, out)

		if err := out.Flush(conn); err != nil {
			s.logger.Debugw("Can't send response", zap.Error(err))
			return
		}

		if !keepAlive || ctx.Err() != nil {
			return
		}
	}
}

// ListenUnix listens on the Unix domain socket at path with the given permissions.
// A stale socket file is removed, but listening fails if another process still serves the socket.
func ListenUnix(path string, mode os.FileMode) (net.Listener, error) {
	if conn, err := net.DialTimeout("unix", path, 100*time.Millisecond); err == nil {
		_ = conn.Close()
		return nil, errors.Errorf("socket %q is in use", path)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "can't remove stale socket")
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't listen on %q", path)
	}

	if err := os.Chmod(path, mode); err != nil {
		_ = l.Close()
		return nil, errors.Wrap(err, "can't change socket permissions")
	}

	return l, nil
}
