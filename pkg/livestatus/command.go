package livestatus

import (
	"fmt"
	"strings"
)

// prefixLen is the length of the timestamp prefix "[1234567890] ".
const prefixLen = 13

// FormatError is returned by ParseExternalCommand for malformed command lines.
type FormatError struct {
	Command string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed timestamp in command '%s'", e.Command)
}

// ExternalCommand is a command line of the form "[<timestamp>] <NAME>[;<arg>...]".
// Values are immutable, WithName returns a modified copy.
type ExternalCommand struct {
	prefix    string
	name      string
	arguments string
}

// ParseExternalCommand splits s into timestamp prefix, name and arguments.
// s must start with a bracketed ten-character timestamp followed by a space and a non-empty name.
func ParseExternalCommand(s string) (ExternalCommand, error) {
	if len(s) <= prefixLen || s[0] != '[' || s[prefixLen-2] != ']' || s[prefixLen-1] != ' ' {
		return ExternalCommand{}, &FormatError{Command: s}
	}

	cmd := ExternalCommand{prefix: s[:prefixLen], name: s[prefixLen:]}
	if i := strings.IndexByte(cmd.name, ';'); i >= 0 {
		cmd.name, cmd.arguments = cmd.name[:i], cmd.name[i:]
	}

	return cmd, nil
}

// Name returns the command's name.
func (c ExternalCommand) Name() string {
	return c.name
}

// Arguments returns the raw arguments including the leading semicolon or an empty string.
func (c ExternalCommand) Arguments() string {
	return c.arguments
}

// Args returns the semicolon-separated arguments. Empty arguments are kept.
func (c ExternalCommand) Args() []string {
	if c.arguments == "" {
		return nil
	}

	return strings.Split(c.arguments[1:], ";")
}

// WithName returns a copy of the command with its name replaced.
func (c ExternalCommand) WithName(name string) ExternalCommand {
	c.name = name
	return c
}

// String returns the command line, which equals the parsed one unless the name has been replaced.
func (c ExternalCommand) String() string {
	return c.prefix + c.name + c.arguments
}
