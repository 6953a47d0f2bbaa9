package catcli

import (
	"io"

	"github.com/ipld/go-ipld-prime/codec"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/datamodel"
	rfmtjson "github.com/polydawn/refmt/json"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
)

// Payloads are plain json: links and bytes stay off in both directions,
// and map keys keep the order the document had.
var (
	encodeDefaults = dagjson.EncodeOptions{
		EncodeLinks: false,
		EncodeBytes: false,
		MapSortMode: codec.MapSortMode_None,
	}
	decodeDefaults = dagjson.DecodeOptions{
		ParseLinks: false,
		ParseBytes: false,
	}
)

// prettyEncoder is a json encoder with line breaks and tab indentation.
//
// Errors:
//
//   - loom-error-serialization --
func prettyEncoder(n datamodel.Node, w io.Writer) error {
	style := rfmtjson.EncodeOptions{
		Line:   []byte{'\n'},
		Indent: []byte{'\t'},
	}
	if err := dagjson.Marshal(n, rfmtjson.NewEncoder(w, style), encodeDefaults); err != nil {
		return serum.Error(loomapi.ECodeSerialization, serum.WithCause(err),
			serum.WithMessageLiteral("cat encoder failed"),
		)
	}
	return nil
}

// payloadDecoder parses one JSON document into the assembler.
//
// Errors:
//
//   - loom-error-serialization --
func payloadDecoder(na datamodel.NodeAssembler, r io.Reader) error {
	if err := decodeDefaults.Decode(na, r); err != nil {
		return serum.Error(loomapi.ECodeSerialization, serum.WithCause(err),
			serum.WithMessageLiteral("cat decoder failed"),
		)
	}
	return nil
}
