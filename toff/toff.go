// Package toff assembles aggregation pipelines over the replica set oplog.
//
// A builder is created with New, narrowed with chained filter calls and then
// run with one of the terminal operations:
//
//	err := toff.New().Op(model.OpInsert).Ns("test.melon").ByID(8).Count(ctx, oplog, printer)
//
// By default no-ops and the config database are left out. Namespace, db,
// command, op and _id filters also look at the sub-operations of applyOps
// entries so nothing that was part of a transaction is missed.
//
// A builder is owned by a single caller and is not safe for concurrent use.
package toff

import (
	"github.com/google/uuid"
	"github.com/levonmo/toff/model"
	"github.com/levonmo/toff/predicate"
	"github.com/levonmo/toff/stage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Oplog struct {
	stages     []stage.Stage
	noop       bool
	config     bool
	reverse    bool
	compact    bool
	limit      int64
	projection interface{}
}

// New returns a builder with no filters that hides no-ops and the config
// database.
func New() *Oplog {
	return &Oplog{}
}

func (o *Oplog) add(s ...stage.Stage) *Oplog {
	o.stages = append(o.stages, s...)
	return o
}

// IncludeNoop keeps replication no-ops in the output.
func (o *Oplog) IncludeNoop() *Oplog {
	o.noop = true
	return o
}

// IncludeConfig keeps operations on the config database in the output.
func (o *Oplog) IncludeConfig() *Oplog {
	o.config = true
	return o
}

// Reverse sorts newest to oldest.
func (o *Oplog) Reverse() *Oplog {
	o.reverse = true
	return o
}

// Compact rewrites op as "<op> on <ns>" and drops session, version and
// timing fields from the output.
func (o *Oplog) Compact() *Oplog {
	o.compact = true
	return o
}

// Limit bounds the number of results. It applies after Reverse, so
// Reverse().Limit(5) yields the five newest entries. A non-positive n
// removes the bound.
func (o *Oplog) Limit(n int64) *Oplog {
	if n < 0 {
		n = 0
	}
	o.limit = n
	return o
}

// Project applies projection to every result. It is passed to the server
// unchanged.
func (o *Oplog) Project(projection interface{}) *Oplog {
	o.projection = projection
	return o
}

func (o *Oplog) Before(ts primitive.Timestamp) *Oplog {
	return o.add(predicate.Before(ts))
}

func (o *Oplog) After(ts primitive.Timestamp) *Oplog {
	return o.add(predicate.After(ts))
}

// BeforeWall takes an ISO-8601 date string such as
// "2023-07-31T18:29:19.081624304Z". Wall times are informational and may not
// line up across nodes.
func (o *Oplog) BeforeWall(wall string) *Oplog {
	return o.add(predicate.BeforeWall(wall))
}

func (o *Oplog) AfterWall(wall string) *Oplog {
	return o.add(predicate.AfterWall(wall))
}

func (o *Oplog) DB(db string) *Oplog {
	return o.add(predicate.DB(db))
}

func (o *Oplog) ExcludeDB(db string) *Oplog {
	return o.add(predicate.ExcludeDB(db))
}

func (o *Oplog) Ns(namespaces ...string) *Oplog {
	return o.add(predicate.Ns(namespaces...))
}

func (o *Oplog) ExcludeNs(namespaces ...string) *Oplog {
	return o.add(predicate.ExcludeNs(namespaces...))
}

func (o *Oplog) Op(op model.OpType) *Oplog {
	return o.add(predicate.Op(op))
}

func (o *Oplog) Command(name string) *Oplog {
	return o.add(predicate.Command(name))
}

// Txn keeps the operations of transaction txnNumber in session lsid, the
// lsid.id UUID found in the oplog.
func (o *Oplog) Txn(txnNumber int64, lsid uuid.UUID) *Oplog {
	return o.add(predicate.Txn(txnNumber, lsid))
}

// ByID keeps operations on documents with any of the given _id values.
// Strings that are valid 24 character hex ObjectIDs are matched as
// ObjectIDs; use ByRawID to match such strings literally.
func (o *Oplog) ByID(ids ...interface{}) *Oplog {
	return o.add(predicate.ByID(predicate.CoerceObjectIDs(ids)...))
}

func (o *Oplog) ByRawID(ids ...interface{}) *Oplog {
	return o.add(predicate.ByID(ids...))
}

// Match adds a custom filter. The query is passed to the server unchanged
// and is not extended to applyOps.
func (o *Oplog) Match(query interface{}) *Oplog {
	return o.add(predicate.Match(query))
}

// ByTestName keeps the operations written between the before_test and
// after_test markers of the named test.
func (o *Oplog) ByTestName(testName string) *Oplog {
	return o.add(predicate.TestWindow(testName)...)
}

// Stages returns a copy of the user stages added so far, without the
// defaults Compile adds.
func (o *Oplog) Stages() stage.Pipeline {
	out := make(stage.Pipeline, len(o.stages))
	copy(out, o.stages)
	return out
}
