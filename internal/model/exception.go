package model

import (
	"errors"
	"strings"
)

// MaxStackFrames is the maximum number of frames accepted for a single exception.
const MaxStackFrames = 1024

var (
	ErrExceptionNameRequired = errors.New("exception name is required")
	ErrTooManyFrames         = errors.New("too many stack frames")
)

// StackFrame is a single frame of an exception's stack trace.
type StackFrame struct {
	Symbol  string `json:"symbol"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Address uint64 `json:"address,omitempty"`
}

// ExceptionModel describes a non-fatal exception reported by an application.
type ExceptionModel struct {
	Name     string       `json:"name" binding:"required"`
	Reason   string       `json:"reason"`
	Frames   []StackFrame `json:"frames,omitempty"`
	OnDemand bool         `json:"on_demand"`
	IsFatal  bool         `json:"is_fatal"`
}

// NewExceptionModel creates an exception model with the given name and reason.
func NewExceptionModel(name, reason string) *ExceptionModel {
	return &ExceptionModel{
		Name:   name,
		Reason: reason,
	}
}

// Validate checks the exception model.
func (e *ExceptionModel) Validate() error {
	if e == nil || strings.TrimSpace(e.Name) == "" {
		return ErrExceptionNameRequired
	}
	if len(e.Frames) > MaxStackFrames {
		return ErrTooManyFrames
	}
	return nil
}

// Kind returns the report kind this exception produces.
func (e *ExceptionModel) Kind() ReportKind {
	switch {
	case e.IsFatal:
		return ReportKindFatal
	case e.OnDemand:
		return ReportKindOnDemand
	default:
		return ReportKindNonFatal
	}
}
