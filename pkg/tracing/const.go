package tracing

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used by loom
const (
	AttrKeyLoomErrorCode     = "loom.error.code"
	AttrKeyLoomIngestHash    = "loom.ingest.hash"
	AttrKeyLoomIngestPath    = "loom.ingest.path"
	AttrKeyLoomIngestRev     = "loom.ingest.rev"
	AttrKeyLoomNodeKey       = "loom.node.key"
	AttrKeyLoomNodeLocation  = "loom.node.location"
	AttrKeyLoomExecName      = "loom.exec.name"
	AttrKeyLoomExecOperation = "loom.exec.operation"
)

// Attribute values
const (
	AttrValueExecNameGit           = "git"
	AttrValueExecOperationGitClone = "clone"
	AttrValueExecOperationGitLs    = "ls"
)

// Enumerated attributes
var (
	AttrFullExecNameGit           = attribute.String(AttrKeyLoomExecName, AttrValueExecNameGit)
	AttrFullExecOperationGitClone = attribute.String(AttrKeyLoomExecOperation, AttrValueExecOperationGitClone)
	AttrFullExecOperationGitLs    = attribute.String(AttrKeyLoomExecOperation, AttrValueExecOperationGitLs)
)
