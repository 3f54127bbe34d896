package toff

import (
	"context"

	"github.com/levonmo/toff/conts"
	"github.com/levonmo/toff/display"
	"github.com/levonmo/toff/stage"
	"github.com/levonmo/toff/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Aggregator runs a pipeline against the oplog and returns the whole result
// set. Implementations must let the server spill large sorts to disk.
type Aggregator interface {
	Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]bson.D, error)
}

// Sink receives the results of Export and reports how many it stored.
type Sink interface {
	Write(ctx context.Context, docs []bson.D) (int, error)
}

// Get runs the pipeline and returns the results.
func (o *Oplog) Get(ctx context.Context, agg Aggregator) ([]bson.D, error) {
	return agg.Aggregate(ctx, o.Compile().Documents())
}

// Show runs the pipeline and prints every result.
func (o *Oplog) Show(ctx context.Context, agg Aggregator, out *display.Printer) error {
	docs, err := o.Get(ctx, agg)
	if err != nil {
		return err
	}
	return out.Documents(docs)
}

// Count prints the number of results instead of the results themselves.
func (o *Oplog) Count(ctx context.Context, agg Aggregator, out *display.Printer) error {
	p := append(o.Compile(), stage.Count{Name: conts.CountField})
	docs, err := agg.Aggregate(ctx, p.Documents())
	if err != nil {
		return err
	}
	// $count emits nothing for an empty input
	if len(docs) == 0 {
		docs = []bson.D{{{Key: conts.CountField, Value: int32(0)}}}
	}
	return out.Documents(docs)
}

// PrintField prints the value at the dotted path for every result, or
// "undefined" where the path does not resolve.
func (o *Oplog) PrintField(ctx context.Context, agg Aggregator, out *display.Printer, path string) error {
	docs, err := o.Get(ctx, agg)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		v, ok := utils.NestedValue(doc, path)
		if err = out.Value(v, ok); err != nil {
			return err
		}
	}
	return nil
}

// Explain prints the user stages added so far without the defaults and
// without running anything.
func (o *Oplog) Explain(out *display.Printer) error {
	return out.Pipeline(o.Stages())
}

// Describe prints the compiled pipeline without running it.
func (o *Oplog) Describe(out *display.Printer) error {
	return out.Pipeline(o.Compile())
}

// Export runs the pipeline and hands the results to sink.
func (o *Oplog) Export(ctx context.Context, agg Aggregator, sink Sink) (int, error) {
	docs, err := o.Get(ctx, agg)
	if err != nil {
		return 0, err
	}
	return sink.Write(ctx, docs)
}
