package datfile

import (
	"fmt"
	"strings"
)

// MalformedInputError is returned for coordinate files that cannot be parsed
// or do not describe an airfoil loop.
type MalformedInputError struct {
	File   string
	Line   int
	Token  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	b.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	b.WriteString(": malformed input: ")
	b.WriteString(e.Reason)
	if e.Token != "" {
		fmt.Fprintf(&b, " (%q)", e.Token)
	}
	return b.String()
}
