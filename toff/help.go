package toff

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
)

var examples = []struct {
	what string
	how  string
}{
	{"Show the oplog, oldest to newest:", "toff.New().Show(ctx, oplog, out)"},
	{"Show the last 5 entries:", "toff.New().Reverse().Limit(5).Show(ctx, oplog, out)"},
	{"Show newest to oldest from timestamp { t: 1690828162, i: 786 }:", "toff.New().Reverse().After(primitive.Timestamp{T: 1690828162, I: 786}).Show(ctx, oplog, out)"},
	{"Show entries between two wall times:", `toff.New().AfterWall("2023-07-31T18:29:19.037889997Z").BeforeWall("2023-07-31T18:29:19.081624304Z").Show(ctx, oplog, out)`},
	{"Show only inserts into the partitions collection:", `toff.New().Ns("mongosync_reserved_for_internal_use.partitions").Op(model.OpInsert).Show(ctx, oplog, out)`},
	{"Show only createIndexes commands:", `toff.New().Command("createIndexes").Show(ctx, oplog, out)`},
	{"Show one database except for one collection:", `toff.New().DB("mongosync_reserved_for_internal_use").ExcludeNs("mongosync_reserved_for_internal_use.globalState").Show(ctx, oplog, out)`},
	{"Show all operations in transaction 6753 of a session:", `toff.New().Txn(6753, uuid.MustParse("d94483c0-5d07-4b05-8b9b-a0c18cc495fa")).Show(ctx, oplog, out)`},
	{"Show operations on two documents:", `toff.New().ByID("64c7f9f11a4c236a31f5c6c4", "648170059cedcc216ef1d6d8").Show(ctx, oplog, out)`},
	{"Count inserts of _id 8 into test.melon:", `toff.New().Op(model.OpInsert).Ns("test.melon").ByID(8).Count(ctx, oplog, out)`},
	{"Show only the timestamps of those inserts:", `toff.New().Op(model.OpInsert).Ns("test.melon").ByID(8).Project(bson.D{{Key: "ts", Value: 1}}).Show(ctx, oplog, out)`},
	{"Find updates setting a to 10:", `toff.New().Op(model.OpUpdate).Match(bson.D{{Key: "o.a", Value: 10}}).Show(ctx, oplog, out)`},
	{"Print o._id of every insert on foo.bar:", `toff.New().Op(model.OpInsert).Ns("foo.bar").PrintField(ctx, oplog, out, "o._id")`},
}

var reference = [][2]string{
	{"IncludeNoop()", "include noop operations"},
	{"IncludeConfig()", "include operations on the config db"},
	{"Before(ts)", "only operations at or before logical timestamp ts"},
	{"After(ts)", "only operations at or after logical timestamp ts"},
	{"BeforeWall(date)", "only operations at or before the wall time date"},
	{"AfterWall(date)", "only operations at or after the wall time date"},
	{"Reverse()", "sort newest to oldest"},
	{"DB(db)", "only operations on collections of db"},
	{"Ns(ns...)", "only operations on any of the namespaces"},
	{"ExcludeDB(db)", "drop operations on collections of db"},
	{"ExcludeNs(ns...)", "drop operations on any of the namespaces"},
	{"Op(op)", "only ops of one kind: n, c, i, u or d"},
	{"Command(name)", "only commands of the given name"},
	{"Txn(txnNumber, lsid)", "only operations of one transaction; lsid is the lsid.id UUID"},
	{"ByID(ids...)", "only operations on documents with one of the _id values; 24 hex character strings match ObjectIDs"},
	{"ByRawID(ids...)", "like ByID without the ObjectID conversion"},
	{"ByTestName(name)", "only operations between the before_test and after_test markers of a test"},
	{"Match(query)", "add a custom $match stage"},
	{"Compact()", "omit most fields so entries are smaller"},
	{"Limit(n)", "at most n entries"},
	{"Project(projection)", "apply a projection to the output"},
	{"Explain(out)", "print the stages added so far"},
	{"Describe(out)", "print the pipeline that will run"},
	{"Count(ctx, agg, out)", "print the number of matching entries"},
	{"Get(ctx, agg)", "return the matching entries"},
	{"PrintField(ctx, agg, out, path)", "print one field of every matching entry"},
	{"Show(ctx, agg, out)", "print the matching entries"},
	{"Export(ctx, agg, sink)", "copy the matching entries into a sink"},
}

// Help writes usage notes, examples and a method reference to w.
func Help(w io.Writer) {
	fmt.Fprintln(w, "toff: oplog filtering functions.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "\tChain filters on toff.New() and finish with Show, Count, Get, PrintField or Describe.")
	fmt.Fprintln(w, "\tBy default noops and the config db are omitted.")
	fmt.Fprintln(w, "\tFilters on namespace, db, command, _id and op check both top-level operations and")
	fmt.Fprintln(w, "\tsub-operations in applyOps, so nothing that is part of a transaction is missed.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	for _, e := range examples {
		fmt.Fprintf(w, "\t%s\n\t%s\n\n", e.what, e.how)
	}
	fmt.Fprintln(w, "REFERENCE:")
	t := tabby.NewCustom(tabwriter.NewWriter(w, 0, 8, 2, ' ', 0))
	for _, r := range reference {
		t.AddLine("", r[0], r[1])
	}
	t.Print()
}
