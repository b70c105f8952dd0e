package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/shadestore/internal/ir"
)

// Diagnostic codes (E200-E299)
const (
	ErrSourceSyntax       = "E200" // CUE syntax or evaluation error
	ErrSchemaViolation    = "E201" // source does not match #Module
	ErrImportFailed       = "E202" // imported module failed to compile
	ErrImportCycle        = "E203" // module imports itself transitively
	ErrUnknownDefinition  = "E204" // call to an unknown definition
	ErrUnknownArgument    = "E205" // call argument names no parameter
	ErrTypeMismatch       = "E206" // expression type differs from the expected type
	ErrUnknownAnnotation  = "E207" // annotation has no declaration
	ErrDuplicateName      = "E208" // duplicate definition, type or constant
	ErrRecursiveCall      = "E209" // definitions call each other recursively
	ErrBadLiteral         = "E210" // literal cannot be converted to its type
	ErrModuleNotFound     = "E211" // no source file on the search paths
	ErrUnknownParameter   = "E212" // parameter reference names no parameter
	ErrNotImported        = "E213" // call into a module that is not imported
	ErrInvalidModuleName  = "E214" // malformed module name
	ErrMissingDeclaration = "E215" // required field missing
)

// CompileError is a diagnostic with source position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Diagnostic converts e to a message.
func (e *CompileError) Diagnostic() ir.Message {
	m := ir.Message{Severity: ir.SeverityError, Code: e.Code, Text: e.Field + ": " + e.Message}
	if e.Pos.IsValid() {
		m.Position = fmt.Sprintf("%s:%d:%d", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	return m
}

// cueMessages extracts one diagnostic per CUE error, with positions.
func cueMessages(code string, err error) []ir.Message {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return []ir.Message{ir.Errorf(code, "%v", err)}
	}
	msgs := make([]ir.Message, 0, len(errs))
	for _, e := range errs {
		ce := &CompileError{Code: code, Field: "cue", Message: e.Error()}
		if positions := errors.Positions(e); len(positions) > 0 {
			ce.Pos = positions[0]
		}
		msgs = append(msgs, ce.Diagnostic())
	}
	return msgs
}

// diagnostics accumulates messages for one compilation.
type diagnostics struct {
	msgs []ir.Message
}

func (d *diagnostics) errorf(code string, pos token.Pos, field, format string, args ...any) {
	ce := &CompileError{Code: code, Field: field, Message: fmt.Sprintf(format, args...), Pos: pos}
	d.msgs = append(d.msgs, ce.Diagnostic())
}

func (d *diagnostics) add(msgs ...ir.Message) {
	d.msgs = append(d.msgs, msgs...)
}

func (d *diagnostics) failed() bool {
	return ir.HasErrors(d.msgs)
}
