package toff

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/levonmo/toff/display"
	"github.com/levonmo/toff/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mockAggregator struct {
	pipelines []mongo.Pipeline
	results   []bson.D
	err       error
}

func (m *mockAggregator) Aggregate(_ context.Context, p mongo.Pipeline) ([]bson.D, error) {
	m.pipelines = append(m.pipelines, p)
	return m.results, m.err
}

type mockSink struct {
	docs []bson.D
}

func (m *mockSink) Write(_ context.Context, docs []bson.D) (int, error) {
	m.docs = append(m.docs, docs...)
	return len(docs), nil
}

func TestTerminalOperations(t *testing.T) {
	results := []bson.D{
		{{Key: "op", Value: "i"}, {Key: "ns", Value: "test.a"}, {Key: "o", Value: bson.D{{Key: "_id", Value: int32(1)}}}},
		{{Key: "op", Value: "i"}, {Key: "ns", Value: "test.b"}},
	}

	for tName, tCase := range map[string]func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer){
		"GetRunsCompiledPipeline": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			q := New().Op(model.OpInsert)
			docs, err := q.Get(context.Background(), agg)
			require.NoError(t, err)
			assert.Equal(t, results, docs)
			require.Len(t, agg.pipelines, 1)
			assert.Equal(t, q.Compile().Documents(), agg.pipelines[0])
		},
		"ShowPrintsEveryResult": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			require.NoError(t, New().Show(context.Background(), agg, out))
			assert.Contains(t, buf.String(), `"ns": "test.a"`)
			assert.Contains(t, buf.String(), `"ns": "test.b"`)
		},
		"CountAppendsCountStage": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			agg.results = []bson.D{{{Key: "count", Value: int32(2)}}}
			q := New()
			require.NoError(t, q.Count(context.Background(), agg, out))
			require.Len(t, agg.pipelines, 1)
			p := agg.pipelines[0]
			require.Len(t, p, len(q.Compile())+1)
			assert.Equal(t, bson.D{{Key: "$count", Value: "count"}}, p[len(p)-1])
			assert.Contains(t, buf.String(), `"count": 2`)
		},
		"CountPrintsZeroForNoResults": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			agg.results = nil
			require.NoError(t, New().Count(context.Background(), agg, out))
			assert.Contains(t, buf.String(), `"count": 0`)
		},
		"PrintFieldResolvesPaths": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			require.NoError(t, New().PrintField(context.Background(), agg, out, "o._id"))
			assert.Equal(t, "1\nundefined\n", buf.String())
		},
		"ExplainPrintsOnlyUserStages": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			require.NoError(t, New().Ns("test.a").Explain(out))
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			assert.Len(t, lines, 3)
			assert.NotContains(t, buf.String(), "$addFields")
			assert.Empty(t, agg.pipelines)
		},
		"DescribePrintsCompiledStages": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			require.NoError(t, New().Describe(out))
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			assert.Len(t, lines, 6)
			assert.Contains(t, buf.String(), "$addFields")
			assert.Empty(t, agg.pipelines)
		},
		"ExportWritesResults": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			s := &mockSink{}
			n, err := New().Export(context.Background(), agg, s)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, results, s.docs)
		},
		"EngineErrorsPropagate": func(t *testing.T, agg *mockAggregator, buf *bytes.Buffer, out *display.Printer) {
			agg.err = errors.New("not authorized on local")
			agg.results = nil
			assert.ErrorIs(t, New().Show(context.Background(), agg, out), agg.err)
			assert.ErrorIs(t, New().Count(context.Background(), agg, out), agg.err)
			assert.ErrorIs(t, New().PrintField(context.Background(), agg, out, "ts"), agg.err)
			_, err := New().Export(context.Background(), agg, &mockSink{})
			assert.ErrorIs(t, err, agg.err)
			assert.Empty(t, buf.String())
		},
	} {
		t.Run(tName, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tCase(t, &mockAggregator{results: results}, buf, display.NewPrinter(buf, nil))
		})
	}
}

func TestHelp(t *testing.T) {
	buf := &bytes.Buffer{}
	Help(buf)
	assert.Contains(t, buf.String(), "ByTestName(name)")
	assert.Contains(t, buf.String(), "EXAMPLES:")
}
