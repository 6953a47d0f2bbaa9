package loomapi

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/serum-errors/go-serum"
)

const (
	ECodeAlreadyExists   = "loom-error-already-exists"
	ECodeDataTooNew      = "loom-error-datatoonew"
	ECodeGit             = "loom-error-git"
	ECodeIndexArity      = "loom-error-index-arity"
	ECodeIndexAxis       = "loom-error-index-axis"
	ECodeIndexRange      = "loom-error-index-range"
	ECodeInitialization  = "loom-error-initialization"
	ECodeInternal        = "loom-error-internal"
	ECodeInvalid         = "loom-error-invalid"
	ECodeIo              = "loom-error-io"
	ECodeKeyIncomparable = "loom-error-key-incomparable"
	ECodeKind            = "loom-error-kind"
	ECodeMetadataParse   = "loom-error-metadata-parse"
	ECodeMirror          = "loom-error-mirror"
	ECodeMissing         = "loom-error-missing"
	ECodeSearch          = "loom-error-searching-filesystem"
	ECodeSerialization   = "loom-error-serialization"
	ECodeSyscall         = "loom-error-syscall"
	ECodeUnknown         = "loom-error-unknown"
)

// Error is the interface all errors from this module satisfy.
type Error = serum.ErrorInterface

// TerminalError emits an error on stdout as json, and halts immediately.
// In most cases, you should not use this method, and there will be a better place to send errors
// that will be more guaranteed to fit any protocols and scripts better;
// however, this is sometimes used in init methods (where we know no other protocol yet).
func TerminalError(err serum.ErrorInterface, exitCode int) {
	json.NewEncoder(os.Stdout).Encode(struct {
		Error serum.ErrorInterface `json:"error"`
	}{err})
	os.Exit(exitCode)
}

// ErrorUnknown is returned when an unknown error occurs
//
// Errors:
//
// - loom-error-unknown --
func ErrorUnknown(msgTmpl string, cause error) error {
	return serum.Errorf(ECodeUnknown, "%s: %w", msgTmpl, cause)
}

// ErrorInternal is for miscellaneous errors that should be handled internally.
// In most cases, prefer to use more specific errors.
// Can be used when an end user is not expected to have viable intervention strategies.
//
// Errors:
//
// - loom-error-internal --
func ErrorInternal(msgTmpl string, cause error) error {
	return serum.Errorf(ECodeInternal, "%s: %w", msgTmpl, cause)
}

// ErrorInvalid is returned when something is invalid.
// In most cases, prefer to use more specific errors.
// The caller must format the message string.
//
// Errors:
//
//  - loom-error-invalid --
func ErrorInvalid(message string, deets ...[2]string) error {
	opts := make([]serum.WithConstruction, 0, len(deets))
	for _, d := range deets {
		opts = append(opts, serum.WithDetail(d[0], d[1]))
	}
	opts = append(opts, serum.WithMessageLiteral(message))
	return serum.Error(ECodeInvalid, opts...)
}

// ErrorIo wraps generic I/O errors from the Go stdlib
//
// Errors:
//
//    - loom-error-io --
func ErrorIo(context string, path string, cause error) error {
	result := serum.Errorf(ECodeIo,
		"io error: %s: %w", context, cause)
	addDetails(result, [][2]string{{"context", context}, {"path", path}})
	return result
}

// ErrorSerialization is returned when a serialization or deserialization error occurs
//
// Errors:
//
//    - loom-error-serialization --
func ErrorSerialization(context string, cause error) error {
	result := serum.Errorf(ECodeSerialization,
		"serialization error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorSearchingFilesystem is returned when an error occurs during search
//
// Errors:
//
//    - loom-error-searching-filesystem --
func ErrorSearchingFilesystem(searchingFor string, cause error) error {
	result := serum.Errorf(ECodeSearch,
		"error while searching filesystem for %s: %w", searchingFor, cause)
	addDetails(result, [][2]string{
		{"searchingFor", searchingFor},
		// the cause is presumed to have any path(s) relevant.
	})
	return result
}

// ErrorMetadataParse is returned when node metadata or an envelope document
// fails to parse
//
// Errors:
//
//    - loom-error-metadata-parse --
func ErrorMetadataParse(context string, cause error) error {
	result := serum.Errorf(ECodeMetadataParse,
		"malformed metadata: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorDataTooNew is returned when some data was (partially) deserialized,
// but only enough that we could recognize it as being a newer version of message
// than this application supports.
//
// Errors:
//
//    - loom-error-datatoonew -- if some data is too new to parse completely.
func ErrorDataTooNew(context string, cause error) error {
	result := serum.Errorf(ECodeDataTooNew,
		"while %s, encountered data from an unknown version: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorLocationMissing is used when no data exists at a storage location
//
// Errors:
//
//    - loom-error-missing --
func ErrorLocationMissing(loc Location) error {
	return serum.Error(ECodeMissing,
		serum.WithMessageTemplate("no data at location {{location|q}}"),
		serum.WithDetail("location", loc.String()),
	)
}

// ErrorChildMissing is used when a collection has no child under the given key
//
// Errors:
//
//    - loom-error-missing --
func ErrorChildMissing(key string, loc Location) error {
	return serum.Error(ECodeMissing,
		serum.WithMessageTemplate("no child {{key|q}} under location {{location|q}}"),
		serum.WithDetail("key", key),
		serum.WithDetail("location", loc.String()),
	)
}

// ErrorCoordinateMissing is used when a coordinate lies within an ND node's
// bounds but no element exists there (sparse extents, e.g. join results).
//
// Errors:
//
//    - loom-error-missing --
func ErrorCoordinateMissing(coord []int) error {
	return serum.Error(ECodeMissing,
		serum.WithMessageTemplate("no element at coordinate {{coordinate}}"),
		serum.WithDetail("coordinate", fmtCoord(coord)),
	)
}

// ErrorFileAlreadyExists is used when a file already exists
//
// Errors:
//
//    - loom-error-already-exists --
func ErrorFileAlreadyExists(path string) error {
	return serum.Error(ECodeAlreadyExists,
		serum.WithMessageTemplate("file already exists at path: {{path|q}}"),
		serum.WithDetail("path", path),
	)
}

// ErrorChildExists is used when adding a child under a key that is already taken
//
// Errors:
//
//    - loom-error-already-exists --
func ErrorChildExists(key string, loc Location) error {
	return serum.Error(ECodeAlreadyExists,
		serum.WithMessageTemplate("child {{key|q}} already exists under location {{location|q}}"),
		serum.WithDetail("key", key),
		serum.WithDetail("location", loc.String()),
	)
}

// ErrorIndexRange is returned when a single-position index falls outside a
// node's element range.
//
// Errors:
//
//    - loom-error-index-range --
func ErrorIndexRange(position int, length int, axis Label) error {
	return serum.Error(ECodeIndexRange,
		serum.WithMessageTemplate("index {{position}} outside of {{length}} elements on axis {{axis|q}}"),
		serum.WithDetail("position", strconv.Itoa(position)),
		serum.WithDetail("length", strconv.Itoa(length)),
		serum.WithDetail("axis", string(axis)),
	)
}

// ErrorIndexArity is returned when an index tuple's arity does not match the
// node's axis count.  This is a contract violation, never a silent truncation.
//
// Errors:
//
//    - loom-error-index-arity --
func ErrorIndexArity(got int, want int) error {
	return serum.Error(ECodeIndexArity,
		serum.WithMessageTemplate("index tuple has {{got}} components but the node has {{want}} axes"),
		serum.WithDetail("got", strconv.Itoa(got)),
		serum.WithDetail("want", strconv.Itoa(want)),
	)
}

// ErrorIndexAxis is returned when an axis projection names an axis outside [0, K)
//
// Errors:
//
//    - loom-error-index-axis --
func ErrorIndexAxis(axis int, arity int) error {
	return serum.Error(ECodeIndexAxis,
		serum.WithMessageTemplate("axis {{axis}} outside of node arity {{arity}}"),
		serum.WithDetail("axis", strconv.Itoa(axis)),
		serum.WithDetail("arity", strconv.Itoa(arity)),
	)
}

// ErrorKeyIncomparable is returned when a join key function yields a value
// that cannot be compared for equality (and so cannot be hashed either).
//
// Errors:
//
//    - loom-error-key-incomparable --
func ErrorKeyIncomparable(operand string, keyType string) error {
	return serum.Error(ECodeKeyIncomparable,
		serum.WithMessageTemplate("join key for operand {{operand}} has incomparable type {{keyType}}"),
		serum.WithDetail("operand", operand),
		serum.WithDetail("keyType", keyType),
	)
}

// ErrorKindUnknown is returned when an envelope names a kind that is not registered
//
// Errors:
//
//    - loom-error-kind --
func ErrorKindUnknown(id KindID) error {
	return serum.Error(ECodeKind,
		serum.WithMessageTemplate("no kind registered for id {{kindId|q}}"),
		serum.WithDetail("kindId", string(id)),
	)
}

// ErrorKindConflict is returned when two kinds are registered under one id
//
// Errors:
//
//    - loom-error-kind --
func ErrorKindConflict(id KindID, existing string) error {
	return serum.Error(ECodeKind,
		serum.WithMessageTemplate("kind id {{kindId|q}} is already registered by {{existing|q}}"),
		serum.WithDetail("kindId", string(id)),
		serum.WithDetail("existing", existing),
	)
}

// ErrorGit is returned when a go-git error occurs
//
// Errors:
//
//    - loom-error-git --
func ErrorGit(context string, cause error) error {
	result := serum.Errorf(ECodeGit, "git error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorMirror is returned when talking to a remote mirror fails
//
// Errors:
//
//    - loom-error-mirror --
func ErrorMirror(context string, cause error) error {
	result := serum.Errorf(ECodeMirror, "mirror error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

func fmtCoord(coord []int) string {
	parts := make([]string, len(coord))
	for i, c := range coord {
		parts[i] = strconv.Itoa(c)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// addDetails is a helper method to get around the fact that doing a type coercion within
// an expoerted function is not currently allowed by serum.
// We won't need this if serum supports an equivalent to %w in message templates OR
// supports adding details when using serum.Errorf
func addDetails(err error, details [][2]string) {
	s := err.(*serum.ErrorValue)
	s.Data.Details = append(s.Data.Details, details...)
}
