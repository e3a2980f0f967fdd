// Package errs defines the structured error taxonomy shared by every
// exported operation in this module: initialization failures, codec
// failures, and built-in dispatch failures.
package errs

import (
	"fmt"
	"strings"
)

// Phase indicates which stage of processing produced the error.
type Phase string

const (
	PhaseInitialization Phase = "initialization"
	PhaseEncode         Phase = "encode"
	PhaseDecode         Phase = "decode"
	PhaseDispatch       Phase = "dispatch"
	PhaseRuntime        Phase = "runtime"
)

// Kind categorizes the error within its phase.
type Kind string

const (
	// Initialization kinds.
	KindMissingExport   Kind = "missing_export"
	KindUnknownBuiltin  Kind = "unknown_builtin"
	KindInvalidBuiltins Kind = "invalid_builtins_table"

	// Runtime kinds.
	KindTrap Kind = "trap"

	// Codec kinds.
	KindDeserialize       Kind = "deserialize"
	KindSerialize         Kind = "serialize"
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindExpectedNumber    Kind = "expected_number"
	KindExpectedBoolean   Kind = "expected_boolean"
	KindExpectedString    Kind = "expected_string"
	KindExpectedArray     Kind = "expected_array"
	KindExpectedObject    Kind = "expected_object"
	KindExpectedEnum      Kind = "expected_enum"
	KindExpectedNull      Kind = "expected_null"
	KindInvalidNumberRepr Kind = "invalid_number_repr"
	KindNotEnoughData     Kind = "not_enough_data"
	KindNullPointer       Kind = "null_pointer"
	KindExpectedSeqLen    Kind = "expected_seq_len"
	KindInvalidSeqLen     Kind = "invalid_seq_len"
	KindExpectedField     Kind = "expected_field"
	KindMarkerMisuse      Kind = "marker_misuse"
	KindIntegerConversion Kind = "integer_conversion"

	// Dispatch (built-in) kinds.
	KindUnknownBuiltinID  Kind = "unknown_builtin_id"
	KindInvalidType       Kind = "invalid_type"
	KindInvalidConversion Kind = "invalid_conversion"
	KindInvalidIPNetwork  Kind = "invalid_ip_network"
	KindInvalidRegex      Kind = "invalid_regex"
	KindUnknownTimezone   Kind = "unknown_timezone"
	KindParseDatetime     Kind = "parse_datetime"
)

// Error is the structured error type returned throughout this module.
type Error struct {
	Phase    Phase
	Kind     Kind
	Name     string // built-in/export name, where applicable
	ID       uint32 // built-in id, where applicable
	Expected string
	Observed string
	Path     []string
	Detail   string
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Expected != "" || e.Observed != "" {
		b.WriteString(fmt.Sprintf(" (expected %s, got %s)", e.Expected, e.Observed))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Path(path ...string) *Builder { b.err.Path = path; return b }
func (b *Builder) Name(name string) *Builder    { b.err.Name = name; return b }
func (b *Builder) ID(id uint32) *Builder        { b.err.ID = id; return b }
func (b *Builder) Expected(s string) *Builder   { b.err.Expected = s; return b }
func (b *Builder) Observed(s string) *Builder   { b.err.Observed = s; return b }
func (b *Builder) Cause(err error) *Builder     { b.err.Cause = err; return b }

func (b *Builder) Detail(format string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(format, args...)
	} else {
		b.err.Detail = format
	}
	return b
}

func (b *Builder) Build() *Error { return &b.err }

// Convenience constructors for the most common call sites.

func MissingExport(name string) *Error {
	return New(PhaseInitialization, KindMissingExport).Name(name).Build()
}

func UnknownBuiltin(name string) *Error {
	return New(PhaseInitialization, KindUnknownBuiltin).Name(name).Build()
}

func UnknownBuiltinID(id uint32) *Error {
	return New(PhaseDispatch, KindUnknownBuiltinID).ID(id).Build()
}

func Trap(cause error) *Error {
	return New(PhaseRuntime, KindTrap).Cause(cause).Build()
}

func InvalidType(expected, observed string) *Error {
	return New(PhaseDispatch, KindInvalidType).Expected(expected).Observed(observed).Build()
}

func InvalidUTF8(phase Phase, path []string) *Error {
	return New(phase, KindInvalidUTF8).Path(path...).Build()
}

func NotEnoughData(phase Phase, expected, got int) *Error {
	return New(phase, KindNotEnoughData).Detail("expected %d bytes, got %d", expected, got).Build()
}

func InvalidSeqLen(expected, got int) *Error {
	return New(PhaseEncode, KindInvalidSeqLen).Detail("declared length %d, emitted %d", expected, got).Build()
}

func ExpectedField(name string) *Error {
	return New(PhaseDecode, KindExpectedField).Name(name).Build()
}

func NullPointer(phase Phase, path []string) *Error {
	return New(phase, KindNullPointer).Path(path...).Build()
}

func IntegerConversion(value any, targetType string) *Error {
	return New(PhaseDecode, KindIntegerConversion).Expected(targetType).Detail("value %v overflows %s", value, targetType).Build()
}

func UnknownTimezone(name string) *Error {
	return New(PhaseDispatch, KindUnknownTimezone).Name(name).Build()
}

func InvalidRegex(cause error) *Error {
	return New(PhaseDispatch, KindInvalidRegex).Cause(cause).Build()
}

func InvalidIPNetwork(cause error) *Error {
	return New(PhaseDispatch, KindInvalidIPNetwork).Cause(cause).Build()
}

func ParseDatetime(cause error) *Error {
	return New(PhaseDispatch, KindParseDatetime).Cause(cause).Build()
}
