package loomapi_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
)

func TestNodeEnvelopeRoundTrip(t *testing.T) {
	content := loomapi.ContentCID("bafyrgqhkhkk")
	env := &loomapi.NodeEnvelope{
		Kind:  loomapi.KindID("23a45604-96ce-4d08-9b7e-1e0c9a0a2f3d"),
		Label: "trial",
		Metadata: loomapi.NewMetadata(map[string]string{
			"study":   "gait",
			"subject": "s012",
			"trial":   "3",
		}),
		Content: &content,
	}

	data, err := loomapi.SerializeNodeEnvelope(env)
	qt.Assert(t, err, qt.IsNil)

	reparsed, err := loomapi.ParseNodeEnvelope(data)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, reparsed, qt.CmpEquals(), env)
}

func TestParseNodeEnvelopeRejectsGarbage(t *testing.T) {
	for _, tt := range []struct {
		name   string
		serial string
	}{
		{"not json", `hello there`},
		{"wrong shape", `["node.v1"]`},
		{"unrecognized version key", `{"node.v9000": {"kind": "x", "label": "y", "metadata": {}}}`},
		{"missing fields", `{"node.v1": {"label": "y"}}`},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := loomapi.ParseNodeEnvelope([]byte(tt.serial))
			qt.Assert(t, err, qt.IsNotNil)
			qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeMetadataParse)
		})
	}
}

func TestGraphRecordRoundTrip(t *testing.T) {
	parent := loomapi.GraphNodeID("9f0c5a2e-0d3f-4a55-8a25-66e1b1a60a01")
	content := loomapi.ContentCID("bafyrgqhkhkk")
	rec := &loomapi.GraphRecord{
		Id:       loomapi.GraphNodeID("9f0c5a2e-0d3f-4a55-8a25-66e1b1a60a02"),
		Kind:     loomapi.KindID("23a45604-96ce-4d08-9b7e-1e0c9a0a2f3d"),
		Label:    "trial",
		Key:      "trial-trial=3",
		Location: "study/trial-trial=3",
		Parent:   &parent,
		Children: []loomapi.GraphNodeID{"9f0c5a2e-0d3f-4a55-8a25-66e1b1a60a03"},
		Content:  &content,
	}

	data, err := loomapi.SerializeGraphRecord(rec)
	qt.Assert(t, err, qt.IsNil)

	reparsed, err := loomapi.ParseGraphRecord(data)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, reparsed, qt.CmpEquals(), rec)

	_, err = loomapi.ParseGraphRecord([]byte(`{"id": 7}`))
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeSerialization)
}

func TestEnvelopeCidStability(t *testing.T) {
	mkEnv := func() *loomapi.NodeEnvelope {
		return &loomapi.NodeEnvelope{
			Kind:     loomapi.KindID("23a45604-96ce-4d08-9b7e-1e0c9a0a2f3d"),
			Label:    "trial",
			Metadata: loomapi.NewMetadata(map[string]string{"trial": "3"}),
		}
	}
	a := mkEnv()
	b := mkEnv()
	qt.Assert(t, a.Cid(), qt.Equals, b.Cid())

	c := mkEnv()
	c.Metadata = loomapi.NewMetadata(map[string]string{"trial": "4"})
	qt.Assert(t, a.Cid(), qt.Not(qt.Equals), c.Cid())
}

func TestMetadataCanonicalOrder(t *testing.T) {
	m := loomapi.NewMetadata(map[string]string{"zebra": "1", "alpha": "2", "mid": "3"})
	qt.Assert(t, m.Keys, qt.DeepEquals, []string{"alpha", "mid", "zebra"})
	qt.Assert(t, m.String(), qt.Equals, "alpha=2,mid=3,zebra=1")
}

func TestMetadataEqual(t *testing.T) {
	a := loomapi.NewMetadata(map[string]string{"x": "1", "y": "2"})
	b := loomapi.NewMetadata(map[string]string{"y": "2", "x": "1"})
	c := loomapi.NewMetadata(map[string]string{"x": "1"})
	qt.Assert(t, a.Equal(b), qt.IsTrue)
	qt.Assert(t, a.Equal(c), qt.IsFalse)
}

func TestMetadataInt(t *testing.T) {
	m := loomapi.NewMetadata(map[string]string{"trial": "7", "note": "warmup"})

	n, err := m.Int("trial")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, n, qt.Equals, 7)

	_, err = m.Int("note")
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)

	_, err = m.Int("absent")
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)
}
