package livestatus

import (
	"bufio"
	"bytes"
	"fmt"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"io"
	"net"
	"os"
	"strings"
	"time"
)

// ReadResult is the outcome of InputBuffer.ReadRequest.
type ReadResult int

const (
	// RequestRead means a complete request has been read.
	RequestRead ReadResult = iota
	// EOF means the client closed the connection before sending anything.
	EOF
	// Incomplete means the connection failed in the middle of a request.
	Incomplete
	// Timeout means the client didn't send a request in time.
	Timeout
)

// String implements the fmt.Stringer interface.
func (r ReadResult) String() string {
	switch r {
	case RequestRead:
		return "request read"
	case EOF:
		return "EOF"
	case Incomplete:
		return "incomplete request"
	case Timeout:
		return "timeout while reading request"
	default:
		return "unknown read result"
	}
}

// readDeadliner is implemented by net.Conn.
type readDeadliner interface {
	SetReadDeadline(time.Time) error
}

// InputBuffer reads requests, i.e. lines up to and including the first empty one, from a client.
// Leading empty lines are skipped. EOF terminates a request as well.
type InputBuffer struct {
	r            *bufio.Reader
	deadliner    readDeadliner
	idleTimeout  time.Duration
	queryTimeout time.Duration

	lines []string
}

// NewInputBuffer returns a new InputBuffer reading from r.
// If r has read deadlines like net.Conn, waiting for a request is limited to idleTimeout
// and reading the rest of a request once it started to queryTimeout. Zero disables the respective limit.
func NewInputBuffer(r io.Reader, idleTimeout, queryTimeout time.Duration) *InputBuffer {
	in := &InputBuffer{r: bufio.NewReader(r), idleTimeout: idleTimeout, queryTimeout: queryTimeout}
	in.deadliner, _ = r.(readDeadliner)

	return in
}

// ReadRequest reads the next request and reports how that went.
func (in *InputBuffer) ReadRequest() ReadResult {
	in.lines = in.lines[:0]
	in.setDeadline(in.idleTimeout)

	for {
		line, err := in.r.ReadString('\n')
		complete := strings.HasSuffix(line, "\n")
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if complete || line != "" {
			if line == "" {
				if len(in.lines) > 0 {
					return RequestRead
				}

				continue
			}

			if len(in.lines) == 0 {
				in.setDeadline(in.queryTimeout)
			}

			in.lines = append(in.lines, line)
		}

		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				if len(in.lines) > 0 {
					return RequestRead
				}

				return EOF
			case isTimeout(err):
				return Timeout
			default:
				return Incomplete
			}
		}
	}
}

// NextLine removes the first line of the current request and returns it.
// It returns an empty string if there are no more lines.
func (in *InputBuffer) NextLine() string {
	if len(in.lines) == 0 {
		return ""
	}

	line := in.lines[0]
	in.lines = in.lines[1:]

	return line
}

// Empty reports whether all lines of the current request have been consumed.
func (in *InputBuffer) Empty() bool {
	return len(in.lines) == 0
}

func (in *InputBuffer) setDeadline(timeout time.Duration) {
	if in.deadliner == nil {
		return
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	_ = in.deadliner.SetReadDeadline(deadline)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

// ResponseCode is the status of a response as sent in fixed16 response headers.
type ResponseCode int

const (
	OK                ResponseCode = 200
	InvalidRequest    ResponseCode = 400
	NotFound          ResponseCode = 404
	IncompleteRequest ResponseCode = 451
)

// ResponseHeader selects whether and how responses are preceded by a header.
type ResponseHeader int

const (
	// NoHeader sends the response body only.
	NoHeader ResponseHeader = iota
	// Fixed16 precedes the body with a 16-byte header holding the response code and the body's length.
	Fixed16
)

// OutputBuffer collects a response until it's flushed to the client.
type OutputBuffer struct {
	logger *zap.SugaredLogger

	body     bytes.Buffer
	code     ResponseCode
	errorMsg string
	header   ResponseHeader
}

// NewOutputBuffer returns a new OutputBuffer.
func NewOutputBuffer(logger *zap.SugaredLogger) *OutputBuffer {
	return &OutputBuffer{logger: logger, code: OK}
}

// Write implements the io.Writer interface.
func (out *OutputBuffer) Write(p []byte) (int, error) {
	return out.body.Write(p)
}

// WriteString implements the io.StringWriter interface.
func (out *OutputBuffer) WriteString(s string) (int, error) {
	return out.body.WriteString(s)
}

// SetError replaces the response with an error. Only the first error of a response is kept.
func (out *OutputBuffer) SetError(code ResponseCode, msg string) {
	out.logger.Warnf("Answering with error %d: %s", code, msg)

	if out.code == OK {
		out.code = code
		out.errorMsg = msg
	}
}

// SetResponseHeader selects the header of the current response. Each response starts without one.
func (out *OutputBuffer) SetResponseHeader(h ResponseHeader) {
	out.header = h
}

// Code returns the response code.
func (out *OutputBuffer) Code() ResponseCode {
	return out.code
}

// Error returns the error message or an empty string if there's no error.
func (out *OutputBuffer) Error() string {
	return out.errorMsg
}

// Body returns the response body collected so far.
func (out *OutputBuffer) Body() []byte {
	return out.body.Bytes()
}

// Flush writes the response to w and resets the buffer for the next one.
func (out *OutputBuffer) Flush(w io.Writer) error {
	defer out.reset()

	body := out.body.Bytes()
	if out.code != OK {
		body = []byte(out.errorMsg + "\n")
	}

	if out.header == Fixed16 {
		if _, err := fmt.Fprintf(w, "%03d %11d\n", out.code, len(body)); err != nil {
			return errors.Wrap(err, "can't write response header")
		}
	}

	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return errors.Wrap(err, "can't write response")
		}
	}

	return nil
}

func (out *OutputBuffer) reset() {
	out.body.Reset()
	out.code = OK
	out.errorMsg = ""
	out.header = NoHeader
}
