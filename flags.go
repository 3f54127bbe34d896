package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/levonmo/toff/model"
	"github.com/levonmo/toff/toff"
	"github.com/levonmo/toff/utils"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const (
	confFlagName      = "config"
	uriFlagName       = "uri"
	levelFlagName     = "level"
	batchSizeFlagName = "batch-size"

	includeNoopFlagName   = "include-noop"
	includeConfigFlagName = "include-config"
	beforeFlagName        = "before"
	afterFlagName         = "after"
	beforeWallFlagName    = "before-wall"
	afterWallFlagName     = "after-wall"
	dbFlagName            = "db"
	nsFlagName            = "ns"
	excludeDBFlagName     = "exclude-db"
	excludeNsFlagName     = "exclude-ns"
	opFlagName            = "op"
	commandFlagName       = "command"
	txnNumberFlagName     = "txn-number"
	lsidFlagName          = "lsid"
	idFlagName            = "id"
	rawIDFlagName         = "raw-id"
	matchFlagName         = "match"
	testNameFlagName      = "test-name"
	reverseFlagName       = "reverse"
	compactFlagName       = "compact"
	limitFlagName         = "limit"
	projectFlagName       = "project"
)

func queryFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.BoolFlag{
			Name:  includeNoopFlagName,
			Usage: "include noop operations",
		},
		cli.BoolFlag{
			Name:  includeConfigFlagName,
			Usage: "include operations on the config db",
		},
		cli.StringFlag{
			Name:  beforeFlagName,
			Usage: "only operations at or before the timestamp, given as 't,i'",
		},
		cli.StringFlag{
			Name:  afterFlagName,
			Usage: "only operations at or after the timestamp, given as 't,i'",
		},
		cli.StringFlag{
			Name:  beforeWallFlagName,
			Usage: "only operations at or before the ISO-8601 wall time",
		},
		cli.StringFlag{
			Name:  afterWallFlagName,
			Usage: "only operations at or after the ISO-8601 wall time",
		},
		cli.StringFlag{
			Name:  dbFlagName,
			Usage: "only operations on collections of this database",
		},
		cli.StringSliceFlag{
			Name:  nsFlagName,
			Usage: "only operations on this namespace; may specify more than once",
		},
		cli.StringFlag{
			Name:  excludeDBFlagName,
			Usage: "drop operations on collections of this database",
		},
		cli.StringSliceFlag{
			Name:  excludeNsFlagName,
			Usage: "drop operations on this namespace; may specify more than once",
		},
		cli.StringFlag{
			Name:  opFlagName,
			Usage: "only ops of this type: n, c, i, u or d",
		},
		cli.StringFlag{
			Name:  commandFlagName,
			Usage: "only commands of this name, such as createIndexes",
		},
		cli.Int64Flag{
			Name:  txnNumberFlagName,
			Usage: "only operations of this transaction number (requires --lsid)",
		},
		cli.StringFlag{
			Name:  lsidFlagName,
			Usage: "session lsid.id UUID of the transaction (requires --txn-number)",
		},
		cli.StringSliceFlag{
			Name:  idFlagName,
			Usage: "only operations on documents with this _id; may specify more than once",
		},
		cli.BoolFlag{
			Name:  rawIDFlagName,
			Usage: "match --id values literally instead of converting 24 hex character strings to ObjectIDs",
		},
		cli.StringSliceFlag{
			Name:  matchFlagName,
			Usage: "add a custom $match stage written as extended JSON; may specify more than once",
		},
		cli.StringFlag{
			Name:  testNameFlagName,
			Usage: "only operations between the before_test and after_test markers of this test",
		},
		cli.BoolFlag{
			Name:  reverseFlagName,
			Usage: "sort newest to oldest",
		},
		cli.BoolFlag{
			Name:  compactFlagName,
			Usage: "omit most fields so entries are smaller",
		},
		cli.Int64Flag{
			Name:  limitFlagName,
			Usage: "at most this many entries",
		},
		cli.StringFlag{
			Name:  projectFlagName,
			Usage: "projection applied to the output, written as extended JSON",
		},
	)
}

// buildQuery turns the query flags into a builder. Flags are applied in a
// fixed order, so the pipeline does not depend on their order on the command
// line.
func buildQuery(c *cli.Context) (*toff.Oplog, error) {
	q := toff.New()

	if c.Bool(includeNoopFlagName) {
		q.IncludeNoop()
	}
	if c.Bool(includeConfigFlagName) {
		q.IncludeConfig()
	}
	if s := c.String(afterFlagName); s != "" {
		ts, err := utils.ParseTimestamp(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --%s", afterFlagName)
		}
		q.After(ts)
	}
	if s := c.String(beforeFlagName); s != "" {
		ts, err := utils.ParseTimestamp(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --%s", beforeFlagName)
		}
		q.Before(ts)
	}
	if s := c.String(afterWallFlagName); s != "" {
		q.AfterWall(s)
	}
	if s := c.String(beforeWallFlagName); s != "" {
		q.BeforeWall(s)
	}
	if s := c.String(dbFlagName); s != "" {
		q.DB(s)
	}
	if ns := c.StringSlice(nsFlagName); len(ns) > 0 {
		q.Ns(ns...)
	}
	if s := c.String(excludeDBFlagName); s != "" {
		q.ExcludeDB(s)
	}
	if ns := c.StringSlice(excludeNsFlagName); len(ns) > 0 {
		q.ExcludeNs(ns...)
	}
	if s := c.String(opFlagName); s != "" {
		op := model.OpType(s)
		if !op.Valid() {
			names := make([]string, 0, len(model.OpTypes))
			for _, t := range model.OpTypes {
				names = append(names, string(t)+" ("+t.Describe()+")")
			}
			return nil, errors.Errorf("invalid --%s '%s', expected one of %s", opFlagName, s, strings.Join(names, ", "))
		}
		q.Op(op)
	}
	if s := c.String(commandFlagName); s != "" {
		q.Command(s)
	}
	if c.IsSet(txnNumberFlagName) || c.IsSet(lsidFlagName) {
		if !c.IsSet(txnNumberFlagName) || !c.IsSet(lsidFlagName) {
			return nil, errors.Errorf("--%s and --%s must be given together", txnNumberFlagName, lsidFlagName)
		}
		lsid, err := uuid.Parse(c.String(lsidFlagName))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --%s", lsidFlagName)
		}
		q.Txn(c.Int64(txnNumberFlagName), lsid)
	}
	if raw := c.StringSlice(idFlagName); len(raw) > 0 {
		ids := make([]interface{}, 0, len(raw))
		for _, s := range raw {
			ids = append(ids, utils.ParseID(s))
		}
		if c.Bool(rawIDFlagName) {
			q.ByRawID(ids...)
		} else {
			q.ByID(ids...)
		}
	}
	for _, s := range c.StringSlice(matchFlagName) {
		query, err := utils.ParseDocument(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --%s", matchFlagName)
		}
		q.Match(query)
	}
	if s := c.String(testNameFlagName); s != "" {
		q.ByTestName(s)
	}
	if c.Bool(reverseFlagName) {
		q.Reverse()
	}
	if c.Bool(compactFlagName) {
		q.Compact()
	}
	if n := c.Int64(limitFlagName); n > 0 {
		q.Limit(n)
	}
	if s := c.String(projectFlagName); s != "" {
		projection, err := utils.ParseDocument(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --%s", projectFlagName)
		}
		q.Project(projection)
	}

	return q, nil
}
