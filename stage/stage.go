// Package stage holds the inert descriptors that make up an aggregation
// pipeline. A descriptor knows how to render itself as a stage document and
// nothing else; ordering and policy live in the builder.
package stage

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Kind string

const (
	KindFilter         Kind = "filter"
	KindDeriveField    Kind = "deriveField"
	KindReshape        Kind = "reshape"
	KindSort           Kind = "sort"
	KindLimit          Kind = "limit"
	KindCrossReference Kind = "crossReference"
	KindCount          Kind = "count"
)

// Stage is one step of a pipeline.
type Stage interface {
	Kind() Kind
	Document() bson.D
}

// Filter keeps the records matching Predicate. The predicate is opaque and
// only validated by the engine.
type Filter struct {
	Predicate interface{}
}

func (Filter) Kind() Kind { return KindFilter }

func (f Filter) Document() bson.D {
	return bson.D{{Key: "$match", Value: f.Predicate}}
}

// DeriveField sets Name on every record to the result of Expression.
type DeriveField struct {
	Name       string
	Expression interface{}
}

func (DeriveField) Kind() Kind { return KindDeriveField }

func (d DeriveField) Document() bson.D {
	return bson.D{{Key: "$addFields", Value: bson.D{{Key: d.Name, Value: d.Expression}}}}
}

// Reshape applies a field mask. The mask is opaque.
type Reshape struct {
	Mask interface{}
}

func (Reshape) Kind() Kind { return KindReshape }

func (r Reshape) Document() bson.D {
	return bson.D{{Key: "$project", Value: r.Mask}}
}

// Exclude builds a Reshape removing every named field.
func Exclude(fields ...string) Reshape {
	mask := make(bson.D, 0, len(fields))
	for _, f := range fields {
		mask = append(mask, bson.E{Key: f, Value: 0})
	}
	return Reshape{Mask: mask}
}

const (
	Ascending  = 1
	Descending = -1
)

type Sort struct {
	Key       string
	Direction int
}

func (Sort) Kind() Kind { return KindSort }

func (s Sort) Document() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{{Key: s.Key, Value: s.Direction}}}}
}

type Limit struct {
	N int64
}

func (Limit) Kind() Kind { return KindLimit }

func (l Limit) Document() bson.D {
	return bson.D{{Key: "$limit", Value: l.N}}
}

// CrossReference looks up records of another collection (or the same one)
// and stores the matches as an array under As. Match filters the foreign
// records, Project shapes them and a positive Limit bounds how many are kept.
type CrossReference struct {
	From    string
	Match   interface{}
	Project bson.D
	Limit   int64
	As      string
}

func (CrossReference) Kind() Kind { return KindCrossReference }

func (c CrossReference) Document() bson.D {
	sub := bson.A{bson.D{{Key: "$match", Value: c.Match}}}
	if len(c.Project) > 0 {
		sub = append(sub, bson.D{{Key: "$project", Value: c.Project}})
	}
	if c.Limit > 0 {
		sub = append(sub, bson.D{{Key: "$limit", Value: c.Limit}})
	}
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: c.From},
		{Key: "pipeline", Value: sub},
		{Key: "as", Value: c.As},
	}}}
}

// Count replaces the result set with a single document holding its size
// under Name.
type Count struct {
	Name string
}

func (Count) Kind() Kind { return KindCount }

func (c Count) Document() bson.D {
	return bson.D{{Key: "$count", Value: c.Name}}
}

// Pipeline is an ordered list of stages.
type Pipeline []Stage

// Documents renders every stage in order.
func (p Pipeline) Documents() mongo.Pipeline {
	out := make(mongo.Pipeline, 0, len(p))
	for _, s := range p {
		out = append(out, s.Document())
	}
	return out
}
