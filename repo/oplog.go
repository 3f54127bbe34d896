package repo

import (
	"context"
	"time"

	"github.com/levonmo/toff/conts"
	"github.com/levonmo/toff/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Oplog runs aggregations against an oplog collection.
type Oplog struct {
	coll *mongo.Collection
}

// NewOplog reads the replica set oplog, local.oplog.rs.
func NewOplog(client *mongo.Client) *Oplog {
	return NewOplogFromCollection(client.Database(conts.OplogDatabase).Collection(conts.OplogCollection))
}

// NewOplogFromCollection reads any collection holding oplog-shaped entries.
func NewOplogFromCollection(coll *mongo.Collection) *Oplog {
	return &Oplog{coll: coll}
}

// Aggregate runs pipeline with allowDiskUse and reads the entire result set.
func (o *Oplog) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]bson.D, error) {
	startTime := time.Now()
	cursor, err := o.coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, errors.Wrap(err, "running oplog aggregation")
	}
	defer cursor.Close(ctx)

	docs := []bson.D{}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "reading oplog aggregation results")
	}
	grip.Debug(message.Fields{
		"message":     "ran oplog aggregation",
		"namespace":   o.coll.Database().Name() + "." + o.coll.Name(),
		"stages":      len(pipeline),
		"results":     len(docs),
		"duration_ms": time.Since(startTime).Milliseconds(),
	})
	return docs, nil
}

// LatestTimestamp returns the ts of the newest entry that is not a no-op.
func (o *Oplog) LatestTimestamp(ctx context.Context) (primitive.Timestamp, error) {
	var latest model.OpLog
	filter := bson.D{{Key: "op", Value: bson.D{{Key: "$ne", Value: model.OpNoop}}}}
	opts := options.FindOne().SetSort(bson.D{{Key: "$natural", Value: -1}})
	if err := o.coll.FindOne(ctx, filter, opts).Decode(&latest); err != nil {
		return primitive.Timestamp{}, errors.Wrap(err, "finding latest oplog entry")
	}
	return latest.Timestamp, nil
}
