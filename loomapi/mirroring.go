package loomapi

import (
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"
	"github.com/ipld/go-ipld-prime/schema"
)

func init() {
	TypeSystem.Accumulate(schema.SpawnStruct("MirrorConfig",
		[]schema.StructField{
			schema.SpawnStructField("pushConfig", "PushConfig", false, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnStruct("PushConfig",
		[]schema.StructField{
			schema.SpawnStructField("s3", "S3PushConfig", true, false),
			schema.SpawnStructField("mock", "MockPushConfig", true, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnStruct("S3PushConfig",
		[]schema.StructField{
			schema.SpawnStructField("endpoint", "String", false, false),
			schema.SpawnStructField("region", "String", false, false),
			schema.SpawnStructField("bucket", "String", false, false),
			schema.SpawnStructField("path", "String", true, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnStruct("MockPushConfig",
		[]schema.StructField{},
		schema.SpawnStructRepresentationMap(nil)))
}

// MirrorConfig describes how payloads from one data root get mirrored out.
type MirrorConfig struct {
	PushConfig PushConfig
}

// PushConfig selects a push target.  Exactly one member should be set.
type PushConfig struct {
	S3   *S3PushConfig
	Mock *MockPushConfig
}

type S3PushConfig struct {
	Endpoint string
	Region   string
	Bucket   string
	Path     *string
}

type MockPushConfig struct {
}

// SerializeMirrorConfig encodes a mirror configuration as schema-checked JSON.
//
// Errors:
//
//    - loom-error-serialization -- when the configuration cannot be encoded
func SerializeMirrorConfig(cfg *MirrorConfig) ([]byte, error) {
	data, err := ipld.Marshal(json.Encode, cfg, TypeSystem.TypeByName("MirrorConfig"))
	if err != nil {
		return nil, ErrorSerialization("serializing mirror config", err)
	}
	return data, nil
}

// ParseMirrorConfig is the inverse of SerializeMirrorConfig.  Beyond schema
// checking, it rejects configurations that do not select exactly one push
// target, so downstream dispatch can assume a well-formed selection.
//
// Errors:
//
//    - loom-error-serialization -- when the data does not parse as a mirror config
//    - loom-error-invalid -- when the config selects zero or several push targets
func ParseMirrorConfig(data []byte) (*MirrorConfig, error) {
	cfg := MirrorConfig{}
	_, err := ipld.Unmarshal(data, json.Decode, &cfg, TypeSystem.TypeByName("MirrorConfig"))
	if err != nil {
		return nil, ErrorSerialization("parsing mirror config", err)
	}
	if (cfg.PushConfig.S3 != nil) == (cfg.PushConfig.Mock != nil) {
		return nil, ErrorInvalid("mirror config must select exactly one push target")
	}
	return &cfg, nil
}
