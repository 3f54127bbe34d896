// Package display prints query results the way the mongo shell would:
// relaxed extended JSON, paged by a process-wide batch size.
package display

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"github.com/levonmo/toff/conts"
	"github.com/levonmo/toff/stage"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Undefined is printed for a field path that does not resolve.
const Undefined = "undefined"

const morePrompt = `Type "it" for more`

var batchSize int64 = conts.DefaultDisplayBatchSize

// SetBatchSize changes how many documents are printed per page. Values below
// one are ignored.
func SetBatchSize(n int) {
	if n < 1 {
		return
	}
	atomic.StoreInt64(&batchSize, int64(n))
}

// ResetBatchSize restores the default page size.
func ResetBatchSize() {
	atomic.StoreInt64(&batchSize, conts.DefaultDisplayBatchSize)
}

func BatchSize() int {
	return int(atomic.LoadInt64(&batchSize))
}

type Printer struct {
	out io.Writer
	in  *bufio.Reader
}

// NewPrinter writes to out. When in is not nil, the printer pauses after
// every page and continues only if the next line read from in is "it".
func NewPrinter(out io.Writer, in io.Reader) *Printer {
	p := &Printer{out: out}
	if in != nil {
		p.in = bufio.NewReader(in)
	}
	return p
}

// Documents prints every document, one page at a time.
func (p *Printer) Documents(docs []bson.D) error {
	size := BatchSize()
	for i, doc := range docs {
		b, err := bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
		if err != nil {
			return errors.Wrap(err, "rendering document")
		}
		if _, err = fmt.Fprintln(p.out, string(b)); err != nil {
			return errors.WithStack(err)
		}
		if p.in == nil || (i+1)%size != 0 || i+1 == len(docs) {
			continue
		}
		if !p.more() {
			return nil
		}
	}
	return nil
}

func (p *Printer) more() bool {
	fmt.Fprintln(p.out, morePrompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "it"
}

// Value prints a single resolved value, or Undefined when found is false.
func (p *Printer) Value(v interface{}, found bool) error {
	if !found {
		_, err := fmt.Fprintln(p.out, Undefined)
		return errors.WithStack(err)
	}
	s, err := FormatValue(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, s)
	return errors.WithStack(err)
}

// Pipeline prints one row per stage with its position, kind and document.
func (p *Printer) Pipeline(pipeline stage.Pipeline) error {
	t := tabby.NewCustom(tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0))
	t.AddHeader("#", "KIND", "STAGE")
	for i, s := range pipeline {
		b, err := bson.MarshalExtJSON(s.Document(), false, false)
		if err != nil {
			return errors.Wrapf(err, "rendering stage %d", i)
		}
		t.AddLine(i, s.Kind(), string(b))
	}
	t.Print()
	return nil
}

// FormatValue renders a scalar or nested value. Strings print bare, the
// common BSON types use shell notation and everything else is relaxed
// extended JSON.
func FormatValue(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return t, nil
	case primitive.ObjectID:
		return fmt.Sprintf("ObjectId('%s')", t.Hex()), nil
	case primitive.Timestamp:
		return fmt.Sprintf("Timestamp({ t: %d, i: %d })", t.T, t.I), nil
	case bson.D, bson.M:
		b, err := bson.MarshalExtJSONIndent(t, false, false, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "rendering value")
		}
		return string(b), nil
	}

	b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
	if err != nil {
		return "", errors.Wrap(err, "rendering value")
	}
	var wrapped struct {
		V json.RawMessage `json:"v"`
	}
	if err = json.Unmarshal(b, &wrapped); err != nil {
		return "", errors.Wrap(err, "rendering value")
	}
	return string(wrapped.V), nil
}
