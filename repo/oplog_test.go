package repo

import (
	"context"
	"os"
	"testing"

	"github.com/levonmo/toff/model"
	"github.com/levonmo/toff/toff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const testDatabase = "toff_test"

// testCollection returns an empty scratch collection holding oplog-shaped
// entries. The tests need a server of version 5.0 or later and are skipped
// unless TOFF_TEST_MONGODB_URI is set.
func testCollection(t *testing.T) *mongo.Collection {
	uri := os.Getenv("TOFF_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TOFF_TEST_MONGODB_URI is not set")
	}
	ctx := context.Background()
	require.NoError(t, InitMongo(ctx, uri))
	t.Cleanup(func() {
		assert.NoError(t, CloseMongo(ctx))
	})

	coll := GetMongoClient().Database(testDatabase).Collection(t.Name())
	require.NoError(t, coll.Drop(ctx))
	t.Cleanup(func() {
		assert.NoError(t, coll.Drop(ctx))
	})
	return coll
}

func insert(t *testing.T, coll *mongo.Collection, entries ...interface{}) {
	_, err := coll.InsertMany(context.Background(), entries)
	require.NoError(t, err)
}

func ts(i uint32) primitive.Timestamp {
	return primitive.Timestamp{T: 1, I: i}
}

func timestamps(t *testing.T, docs []bson.D) []primitive.Timestamp {
	out := make([]primitive.Timestamp, 0, len(docs))
	for _, doc := range docs {
		var entry model.OpLog
		b, err := bson.Marshal(doc)
		require.NoError(t, err)
		require.NoError(t, bson.Unmarshal(b, &entry))
		out = append(out, entry.Timestamp)
	}
	return out
}

func TestOplogAggregate(t *testing.T) {
	coll := testCollection(t)
	insert(t, coll,
		model.OpLog{Timestamp: ts(1), Operation: model.OpInsert, Namespace: "test.a", Doc: bson.D{{Key: "_id", Value: 1}}},
		model.OpLog{Timestamp: ts(2), Operation: model.OpNoop, Doc: bson.D{{Key: "msg", Value: "periodic noop"}}},
		model.OpLog{Timestamp: ts(3), Operation: model.OpInsert, Namespace: "test.b", Doc: bson.D{{Key: "_id", Value: 2}}},
	)
	oplog := NewOplogFromCollection(coll)
	ctx := context.Background()

	t.Run("OpAndNs", func(t *testing.T) {
		docs, err := toff.New().Op(model.OpInsert).Ns("test.a").Get(ctx, oplog)
		require.NoError(t, err)
		assert.Equal(t, []primitive.Timestamp{ts(1)}, timestamps(t, docs))
	})
	t.Run("DefaultsHideNoops", func(t *testing.T) {
		docs, err := toff.New().Get(ctx, oplog)
		require.NoError(t, err)
		assert.Equal(t, []primitive.Timestamp{ts(1), ts(3)}, timestamps(t, docs))
	})
	t.Run("ReverseThenLimit", func(t *testing.T) {
		docs, err := toff.New().IncludeNoop().Limit(2).Reverse().Get(ctx, oplog)
		require.NoError(t, err)
		assert.Equal(t, []primitive.Timestamp{ts(3), ts(2)}, timestamps(t, docs))
	})
	t.Run("DerivedNamespaceDoesNotLeak", func(t *testing.T) {
		docs, err := toff.New().Get(ctx, oplog)
		require.NoError(t, err)
		for _, doc := range docs {
			for _, e := range doc {
				assert.NotEqual(t, "_temp_ns", e.Key)
			}
		}
	})
	t.Run("NsAndExcludeNsAreComplements", func(t *testing.T) {
		all, err := toff.New().IncludeNoop().IncludeConfig().Get(ctx, oplog)
		require.NoError(t, err)
		in, err := toff.New().IncludeNoop().IncludeConfig().Ns("test.a", "test.c").Get(ctx, oplog)
		require.NoError(t, err)
		out, err := toff.New().IncludeNoop().IncludeConfig().ExcludeNs("test.a", "test.c").Get(ctx, oplog)
		require.NoError(t, err)
		assert.Len(t, in, 1)
		assert.Equal(t, len(all), len(in)+len(out))
	})
}

func TestOplogTransactions(t *testing.T) {
	coll := testCollection(t)
	insert(t, coll,
		model.OpLog{Timestamp: ts(1), Operation: model.OpInsert, Namespace: "test.a", Doc: bson.D{{Key: "_id", Value: 1}}},
		model.OpLog{Timestamp: ts(2), Operation: model.OpCommand, Namespace: "admin.$cmd", Doc: bson.D{
			{Key: "applyOps", Value: bson.A{
				bson.D{{Key: "op", Value: "u"}, {Key: "ns", Value: "test.t"}, {Key: "o", Value: bson.D{{Key: "$set", Value: bson.D{{Key: "a", Value: 1}}}}}, {Key: "o2", Value: bson.D{{Key: "_id", Value: 7}}}},
				bson.D{{Key: "op", Value: "c"}, {Key: "ns", Value: "test.$cmd"}, {Key: "o", Value: bson.D{{Key: "create", Value: "t2"}}}},
			}},
		}},
		model.OpLog{Timestamp: ts(3), Operation: model.OpCommand, Namespace: "test.$cmd", Doc: bson.D{
			{Key: "createIndexes", Value: "b"},
			{Key: "v", Value: 2},
		}},
		model.OpLog{Timestamp: ts(4), Operation: model.OpInsert, Namespace: "config.system.sessions", Doc: bson.D{{Key: "_id", Value: 3}}},
	)
	oplog := NewOplogFromCollection(coll)
	ctx := context.Background()

	for tName, tCase := range map[string]struct {
		query    *toff.Oplog
		expected []primitive.Timestamp
	}{
		"NsMatchesSubOperation":       {query: toff.New().Ns("test.t"), expected: []primitive.Timestamp{ts(2)}},
		"NsMatchesDerivedNamespace":   {query: toff.New().Ns("test.b"), expected: []primitive.Timestamp{ts(3)}},
		"ExcludeNsDropsDerived":       {query: toff.New().ExcludeNs("test.b"), expected: []primitive.Timestamp{ts(1), ts(2)}},
		"OpMatchesSubOperation":       {query: toff.New().Op(model.OpUpdate), expected: []primitive.Timestamp{ts(2)}},
		"ByIDMatchesSubOperation":     {query: toff.New().ByID(7), expected: []primitive.Timestamp{ts(2)}},
		"CommandMatchesTopLevel":      {query: toff.New().Command("createIndexes"), expected: []primitive.Timestamp{ts(3)}},
		"CommandMatchesSubOperation":  {query: toff.New().Command("create"), expected: []primitive.Timestamp{ts(2)}},
		"DBMatchesSubOperation":       {query: toff.New().DB("test"), expected: []primitive.Timestamp{ts(1), ts(2), ts(3)}},
		"ExcludeDBDropsSubOperations": {query: toff.New().ExcludeDB("test"), expected: []primitive.Timestamp{}},
		"IncludeConfig":               {query: toff.New().IncludeConfig().DB("config"), expected: []primitive.Timestamp{ts(4)}},
		"AfterAndBefore":              {query: toff.New().After(ts(2)).Before(ts(3)), expected: []primitive.Timestamp{ts(2), ts(3)}},
	} {
		t.Run(tName, func(t *testing.T) {
			docs, err := tCase.query.Get(ctx, oplog)
			require.NoError(t, err)
			assert.Equal(t, tCase.expected, timestamps(t, docs))
		})
	}
}

func TestOplogTestWindow(t *testing.T) {
	coll := testCollection(t)
	insert(t, coll,
		model.OpLog{Timestamp: ts(1), Operation: model.OpInsert, Namespace: "test.a", Doc: bson.D{{Key: "_id", Value: 1}}},
		model.OpLog{Timestamp: ts(2), Operation: model.OpNoop, Doc: bson.D{{Key: "test", Value: "find.js"}, {Key: "hook", Value: "before_test"}}},
		model.OpLog{Timestamp: ts(3), Operation: model.OpInsert, Namespace: "test.a", Doc: bson.D{{Key: "_id", Value: 2}}},
		model.OpLog{Timestamp: ts(4), Operation: model.OpNoop, Doc: bson.D{{Key: "test", Value: "find.js"}, {Key: "hook", Value: "after_test"}}},
		model.OpLog{Timestamp: ts(5), Operation: model.OpInsert, Namespace: "test.a", Doc: bson.D{{Key: "_id", Value: 3}}},
	)

	// the window lookups read from a collection named oplog.rs in the
	// same database
	window := GetMongoClient().Database(testDatabase).Collection("oplog.rs")
	require.NoError(t, window.Drop(context.Background()))
	docs := []interface{}{}
	cursor, err := coll.Find(context.Background(), bson.D{})
	require.NoError(t, err)
	require.NoError(t, cursor.All(context.Background(), &docs))
	insert(t, window, docs...)
	t.Cleanup(func() {
		assert.NoError(t, window.Drop(context.Background()))
	})

	out, err := toff.New().ByTestName("find.js").Get(context.Background(), NewOplogFromCollection(window))
	require.NoError(t, err)
	assert.Equal(t, []primitive.Timestamp{ts(3)}, timestamps(t, out))
	for _, doc := range out {
		for _, e := range doc {
			assert.NotContains(t, []string{"before_test_ts", "after_test_ts"}, e.Key)
		}
	}
}

func TestLatestTimestamp(t *testing.T) {
	coll := testCollection(t)
	insert(t, coll,
		model.OpLog{Timestamp: ts(1), Operation: model.OpInsert, Namespace: "test.a", Doc: bson.D{{Key: "_id", Value: 1}}},
		model.OpLog{Timestamp: ts(2), Operation: model.OpInsert, Namespace: "test.a", Doc: bson.D{{Key: "_id", Value: 2}}},
		model.OpLog{Timestamp: ts(3), Operation: model.OpNoop, Doc: bson.D{{Key: "msg", Value: "periodic noop"}}},
	)
	latest, err := NewOplogFromCollection(coll).LatestTimestamp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ts(2), latest)
}
