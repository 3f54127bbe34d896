package conts

const (
	// oplog location on a replica set member
	OplogDatabase   = "local"
	OplogCollection = "oplog.rs"

	// synthetic field holding the namespace derived from the command payload
	DerivedNamespaceField = "_temp_ns"

	ConfigDatabase = "config"

	CountField = "count"

	// markers written by the test harness around each test
	TestNameField     = "o.test"
	TestHookField     = "o.hook"
	TestHookBefore    = "before_test"
	TestHookAfter     = "after_test"
	TestWindowStartAs = "before_test_ts"
	TestWindowEndAs   = "after_test_ts"

	DefaultDisplayBatchSize = 20

	DefaultMongodbUrl = "mongodb://localhost:27017"

	// largest bulk request sent to elasticsearch
	MaxExportBatchCount = 2000
)

// CompactRemovedFields are dropped from every record by compact output.
var CompactRemovedFields = [...]string{
	"lsid",
	"txnNumber",
	"t",
	"v",
	"prevOpTime",
	"stmtId",
	"ui",
	"postImageOpTime",
	"wall",
	"ns",
}
