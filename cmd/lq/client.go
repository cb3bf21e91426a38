package main

import (
	"github.com/pkg/errors"
	"io"
	"net"
	"strings"
	"time"
)

// query sends the request lines to the livestatus socket and copies the response to w.
func query(socket string, timeout time.Duration, lines []string, w io.Writer) error {
	conn, err := net.DialTimeout("unix", socket, timeout)
	if err != nil {
		return errors.Wrapf(err, "can't connect to %s", socket)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return errors.Wrap(err, "can't set deadline")
	}

	if _, err := io.WriteString(conn, request(lines)); err != nil {
		return errors.Wrap(err, "can't send request")
	}

	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return errors.Wrap(err, "can't close request")
		}
	}

	if _, err := io.Copy(w, conn); err != nil {
		return errors.Wrap(err, "can't read response")
	}

	return nil
}

// request terminates every line with a newline and the request with an empty line.
func request(lines []string) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')

	return sb.String()
}
