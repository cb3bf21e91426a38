package livestatus

import (
	"context"
	"sync"
	"time"
)

type fakeCore struct {
	mu       sync.Mutex
	commands []string
}

func (c *fakeCore) SubmitExternalCommand(cmd string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commands = append(c.commands, cmd)
}

type fakeLogwatch struct {
	acknowledged [][2]string
}

func (l *fakeLogwatch) Acknowledge(host, file string) {
	l.acknowledged = append(l.acknowledged, [2]string{host, file})
}

type fakeCrashReports struct {
	deleted []string
}

func (c *fakeCrashReports) Delete(id string) bool {
	c.deleted = append(c.deleted, id)
	return true
}

type fakeEventConsole struct {
	sent []string
	err  error
}

func (e *fakeEventConsole) Send(_ context.Context, command string) error {
	e.sent = append(e.sent, command)
	return e.err
}

type fakeRotator struct {
	rotated   []time.Time
	scheduled []time.Time
}

func (r *fakeRotator) Rotate(now time.Time) error {
	r.rotated = append(r.rotated, now)
	return nil
}

func (r *fakeRotator) NextRotation(now time.Time) time.Time {
	return now.Add(24 * time.Hour)
}

func (r *fakeRotator) Schedule(at time.Time) {
	r.scheduled = append(r.scheduled, at)
}

type getRequest struct {
	table string
	lines []string
}

type fakeExecutor struct {
	mu        sync.Mutex
	requests  []getRequest
	keepAlive bool
}

func (e *fakeExecutor) AnswerGetRequest(lines []string, out *OutputBuffer, table string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests = append(e.requests, getRequest{table: table, lines: lines})
	if table == "" {
		out.SetError(InvalidRequest, "Invalid GET request, missing table name")
		return false
	}

	for _, line := range lines {
		if line == "ResponseHeader: fixed16" {
			out.SetResponseHeader(Fixed16)
		}
	}

	_, _ = out.WriteString(table + "\n")

	return e.keepAlive
}
