package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEngineFailure = errors.New("external engine failure")
	ErrResultParse   = errors.New("engine result parse error")
)

// FailureReason classifies an ExternalEngineFailure.
type FailureReason string

const (
	ReasonStart           FailureReason = "start"
	ReasonTimeout         FailureReason = "timeout"
	ReasonExit            FailureReason = "exit"
	ReasonMissingArtifact FailureReason = "missing artifact"
	ReasonReported        FailureReason = "reported"
)

// ExternalEngineFailure is returned when the engine cannot be run, runs too long,
// exits non-zero, leaves a required artifact missing, or reports a failure in its log.
type ExternalEngineFailure struct {
	Reason FailureReason

	// Dir is the engine working directory.
	Dir string

	// ExitCode is set for ReasonExit.
	ExitCode int

	// File and Line locate the artifact, or the log line, the failure was found in.
	File string
	Line int

	Detail string
	Err    error
}

func (e *ExternalEngineFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", ErrEngineFailure, e.Reason)
	if e.Reason == ReasonExit {
		fmt.Fprintf(&b, " (code %d)", e.ExitCode)
	}
	if e.File != "" {
		b.WriteString(": ")
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ExternalEngineFailure) Is(target error) bool {
	return target == ErrEngineFailure
}

func (e *ExternalEngineFailure) Unwrap() error {
	return e.Err
}

// ResultParseError is returned when an artifact does not have the expected shape.
type ResultParseError struct {
	File   string
	Line   int
	Token  string
	Reason string
}

func (e *ResultParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(ErrResultParse.Error())
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Token != "" {
		fmt.Fprintf(&b, " (%q)", e.Token)
	}
	return b.String()
}

func (e *ResultParseError) Unwrap() error {
	return ErrResultParse
}
