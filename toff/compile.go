package toff

import (
	"github.com/levonmo/toff/predicate"
	"github.com/levonmo/toff/stage"
)

// Compile returns the full pipeline for the current state. The result is
// ordered as:
//
//	config exclusion, noop exclusion, namespace derivation, user stages,
//	compact stages, sort, limit, projection, derived namespace removal
//
// where the exclusions, compaction, sort, limit and projection only appear
// when their flags call for them. Compile never modifies the builder.
func (o *Oplog) Compile() stage.Pipeline {
	p := make(stage.Pipeline, 0, len(o.stages)+9)

	if !o.config {
		p = append(p, predicate.ExcludeConfig())
	}
	if !o.noop {
		p = append(p, predicate.ExcludeNoop())
	}
	p = append(p, predicate.DeriveNamespace())
	p = append(p, o.stages...)

	if o.compact {
		p = append(p, predicate.CompactOp(), predicate.CompactMask())
	}
	if o.reverse {
		p = append(p, stage.Sort{Key: "ts", Direction: stage.Descending})
	}
	if o.limit > 0 {
		p = append(p, stage.Limit{N: o.limit})
	}
	if o.projection != nil {
		p = append(p, stage.Reshape{Mask: o.projection})
	}

	return append(p, predicate.DropDerivedNamespace())
}
