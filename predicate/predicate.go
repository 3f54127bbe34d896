// Package predicate builds the filter and derived-field stages used by the
// oplog pipeline builder.
//
// Every helper that targets ns, op, a command name or a document _id also
// looks inside o.applyOps, so operations bundled in a transaction commit are
// matched the same way as top-level ones.
package predicate

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/levonmo/toff/conts"
	"github.com/levonmo/toff/model"
	"github.com/levonmo/toff/stage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const applyOps = "o.applyOps"

// Before keeps entries whose ts is less than or equal to ts.
func Before(ts primitive.Timestamp) stage.Filter {
	return stage.Filter{Predicate: bson.D{{Key: "ts", Value: bson.D{{Key: "$lte", Value: ts}}}}}
}

// After keeps entries whose ts is greater than or equal to ts.
func After(ts primitive.Timestamp) stage.Filter {
	return stage.Filter{Predicate: bson.D{{Key: "ts", Value: bson.D{{Key: "$gte", Value: ts}}}}}
}

// BeforeWall keeps entries whose wall time is at or before the ISO-8601 date
// string wall. The string is parsed by the server.
func BeforeWall(wall string) stage.Filter {
	return wallBound("$lte", wall)
}

// AfterWall keeps entries whose wall time is at or after the ISO-8601 date
// string wall.
func AfterWall(wall string) stage.Filter {
	return wallBound("$gte", wall)
}

func wallBound(cmp, wall string) stage.Filter {
	date := bson.D{{Key: "$dateFromString", Value: bson.D{{Key: "dateString", Value: wall}}}}
	return stage.Filter{Predicate: bson.D{{Key: "$expr", Value: bson.D{{Key: cmp, Value: bson.A{"$wall", date}}}}}}
}

func databaseClauses(db string) bson.A {
	re := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(db) + `\.`}
	return bson.A{
		bson.D{{Key: "ns", Value: re}},
		bson.D{{Key: applyOps + ".ns", Value: re}},
		bson.D{{Key: conts.DerivedNamespaceField, Value: re}},
	}
}

func namespaceClauses(namespaces []string) bson.A {
	set := make(bson.A, 0, len(namespaces))
	for _, ns := range namespaces {
		set = append(set, ns)
	}
	in := bson.D{{Key: "$in", Value: set}}
	return bson.A{
		bson.D{{Key: "ns", Value: in}},
		bson.D{{Key: applyOps + ".ns", Value: in}},
		bson.D{{Key: conts.DerivedNamespaceField, Value: in}},
	}
}

// DB keeps entries touching any collection of database db.
func DB(db string) stage.Filter {
	return stage.Filter{Predicate: bson.D{{Key: "$or", Value: databaseClauses(db)}}}
}

// ExcludeDB is the exact complement of DB.
func ExcludeDB(db string) stage.Filter {
	return stage.Filter{Predicate: bson.D{{Key: "$nor", Value: databaseClauses(db)}}}
}

// Ns keeps entries touching any of the given database.collection namespaces.
func Ns(namespaces ...string) stage.Filter {
	return stage.Filter{Predicate: bson.D{{Key: "$or", Value: namespaceClauses(namespaces)}}}
}

// ExcludeNs is the exact complement of Ns.
func ExcludeNs(namespaces ...string) stage.Filter {
	return stage.Filter{Predicate: bson.D{{Key: "$nor", Value: namespaceClauses(namespaces)}}}
}

// Op keeps entries of the given kind, or transactions carrying a
// sub-operation of that kind.
func Op(op model.OpType) stage.Filter {
	return stage.Filter{Predicate: bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "op", Value: op}},
		bson.D{{Key: applyOps + ".op", Value: op}},
	}}}}
}

// Command keeps command entries whose payload names the command, at the top
// level or as one sub-operation of a transaction.
func Command(name string) stage.Filter {
	field := "o." + name
	exists := bson.D{{Key: "$exists", Value: true}}
	return stage.Filter{Predicate: bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "op", Value: model.OpCommand}, {Key: field, Value: exists}},
		bson.D{{Key: applyOps, Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "op", Value: model.OpCommand},
			{Key: field, Value: exists},
		}}}}},
	}}}}
}

// Txn keeps the entries written by one transaction.
func Txn(txnNumber int64, lsid uuid.UUID) stage.Filter {
	id := make([]byte, len(lsid))
	copy(id, lsid[:])
	return stage.Filter{Predicate: bson.D{
		{Key: "txnNumber", Value: txnNumber},
		{Key: "lsid.id", Value: primitive.Binary{Subtype: bsontype.BinaryUUID, Data: id}},
	}}
}

// ByID keeps entries operating on a document whose _id is one of ids. Values
// are compared as given; see CoerceObjectIDs.
func ByID(ids ...interface{}) stage.Filter {
	set := make(bson.A, len(ids))
	copy(set, ids)
	in := bson.D{{Key: "$in", Value: set}}
	return stage.Filter{Predicate: bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "o._id", Value: in}},
		bson.D{{Key: "o2._id", Value: in}},
		bson.D{{Key: applyOps + ".o._id", Value: in}},
		bson.D{{Key: applyOps + ".o2._id", Value: in}},
	}}}}
}

// CoerceObjectIDs returns a copy of ids where every string that is a valid
// 24 character hex ObjectID is replaced by the ObjectID itself.
//
// This is a guess: a string _id that happens to look like an ObjectID can no
// longer be matched once coerced.
func CoerceObjectIDs(ids []interface{}) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
		s, ok := id.(string)
		if !ok || len(s) != 24 {
			continue
		}
		if oid, err := primitive.ObjectIDFromHex(s); err == nil {
			out[i] = oid
		}
	}
	return out
}

// Match wraps query as a filter without any applyOps broadening.
func Match(query interface{}) stage.Filter {
	return stage.Filter{Predicate: query}
}

// DeriveNamespace sets the derived namespace field to the database of ns
// joined with the value of the first field of o. For commands such as
// createIndexes this names the collection the command targets.
func DeriveNamespace() stage.DeriveField {
	firstValue := bson.D{{Key: "$getField", Value: bson.D{
		{Key: "field", Value: "v"},
		{Key: "input", Value: bson.D{{Key: "$first", Value: bson.D{{Key: "$objectToArray", Value: "$$ROOT.o"}}}}},
	}}}
	return stage.DeriveField{
		Name: conts.DerivedNamespaceField,
		Expression: bson.D{{Key: "$concat", Value: bson.A{
			bson.D{{Key: "$first", Value: bson.D{{Key: "$split", Value: bson.A{"$ns", "."}}}}},
			".",
			bson.D{{Key: "$convert", Value: bson.D{
				{Key: "input", Value: firstValue},
				{Key: "to", Value: "string"},
				{Key: "onError", Value: ""},
				{Key: "onNull", Value: ""},
			}}},
		}}},
	}
}

// ExcludeConfig drops entries on the config database.
func ExcludeConfig() stage.Filter {
	re := primitive.Regex{Pattern: "^" + conts.ConfigDatabase + `\.`}
	return stage.Filter{Predicate: bson.D{{Key: "ns", Value: bson.D{{Key: "$not", Value: re}}}}}
}

// ExcludeNoop drops replication no-ops.
func ExcludeNoop() stage.Filter {
	return stage.Filter{Predicate: bson.D{{Key: "op", Value: bson.D{{Key: "$ne", Value: model.OpNoop}}}}}
}

// CompactOp rewrites op into "<op> on <ns>".
func CompactOp() stage.DeriveField {
	return stage.DeriveField{
		Name:       "op",
		Expression: bson.D{{Key: "$concat", Value: bson.A{"$op", " on ", "$ns"}}},
	}
}

// CompactMask removes the fields rarely needed when reading the oplog.
func CompactMask() stage.Reshape {
	return stage.Exclude(conts.CompactRemovedFields[:]...)
}

// DropDerivedNamespace removes the derived namespace field from results.
func DropDerivedNamespace() stage.Reshape {
	return stage.Exclude(conts.DerivedNamespaceField)
}
