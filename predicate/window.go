package predicate

import (
	"github.com/levonmo/toff/conts"
	"github.com/levonmo/toff/stage"
	"go.mongodb.org/mongo-driver/bson"
)

func testBoundary(testName, hook, as string) stage.CrossReference {
	return stage.CrossReference{
		From: conts.OplogCollection,
		Match: bson.D{
			{Key: conts.TestNameField, Value: testName},
			{Key: conts.TestHookField, Value: hook},
		},
		Project: bson.D{{Key: "ts", Value: 1}},
		Limit:   1,
		As:      as,
	}
}

// boundaryTs reads ts out of the first element of the looked up array.
func boundaryTs(as string) bson.D {
	return bson.D{{Key: "$let", Value: bson.D{
		{Key: "vars", Value: bson.D{{Key: "docExpr", Value: bson.D{
			{Key: "$arrayElemAt", Value: bson.A{"$" + as, bson.D{{Key: "$literal", Value: 0}}}},
		}}}},
		{Key: "in", Value: "$$docExpr.ts"},
	}}}
}

// TestWindow returns the stages keeping only entries written strictly
// between the before_test and after_test markers of the named test.
func TestWindow(testName string) []stage.Stage {
	return []stage.Stage{
		testBoundary(testName, conts.TestHookBefore, conts.TestWindowStartAs),
		testBoundary(testName, conts.TestHookAfter, conts.TestWindowEndAs),
		stage.Filter{Predicate: bson.D{{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "$gt", Value: bson.A{"$ts", boundaryTs(conts.TestWindowStartAs)}}},
			bson.D{{Key: "$lt", Value: bson.A{"$ts", boundaryTs(conts.TestWindowEndAs)}}},
		}}}}}},
		stage.Exclude(conts.TestWindowStartAs, conts.TestWindowEndAs),
	}
}
