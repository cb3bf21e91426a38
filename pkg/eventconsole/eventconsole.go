package eventconsole

import (
	"context"
	"github.com/pkg/errors"
	"io"
	"net"
	"os"
	"time"
)

// Client sends commands to the event console daemon via its Unix domain socket.
type Client struct {
	path    string
	timeout time.Duration
}

// NewClient returns a new Client for the socket at path.
// Each Send gives up after timeout unless the context passed to it expires earlier.
func NewClient(path string, timeout time.Duration) *Client {
	return &Client{path: path, timeout: timeout}
}

// Send connects to the event console, writes command, half-closes the connection
// and drains the reply, which carries nothing of interest for commands.
func (c *Client) Send(ctx context.Context, command string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return errors.Wrap(err, "can't connect to event console")
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, command); err != nil {
		return errors.Wrap(err, "can't send command to event console")
	}

	if err := conn.(*net.UnixConn).CloseWrite(); err != nil {
		return errors.Wrap(err, "can't shut down event console connection for writing")
	}

	if _, err := io.Copy(io.Discard, conn); err != nil {
		return errors.Wrap(err, "can't receive event console reply")
	}

	return nil
}

// Enabled reports whether the event console is enabled for this site,
// i.e. whether the environment variable CONFIG_MKEVENTD is "on".
func Enabled() bool {
	return os.Getenv("CONFIG_MKEVENTD") == "on"
}
