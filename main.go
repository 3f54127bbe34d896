package main

import (
	"context"
	"fmt"
	"os"

	"github.com/levonmo/toff/config"
	"github.com/levonmo/toff/display"
	"github.com/levonmo/toff/log"
	"github.com/levonmo/toff/repo"
	"github.com/levonmo/toff/sink"
	"github.com/levonmo/toff/toff"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func main() {
	grip.EmergencyFatal(buildApp().Run(os.Args))
}

func buildApp() *cli.App {
	app := cli.NewApp()
	app.Name = "toff"
	app.Usage = "filter and print the oplog of a replica set member"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  confFlagName + ", c",
			Usage: "path to a JSON or YAML config file",
		},
		cli.StringFlag{
			Name:  uriFlagName,
			Usage: "mongodb connection string, overrides the config file",
		},
		cli.StringFlag{
			Name:  levelFlagName,
			Usage: "lowest visible log level: 'emergency|alert|critical|error|warning|notice|info|debug|trace'",
		},
		cli.IntFlag{
			Name:  batchSizeFlagName,
			Usage: "documents printed per page, overrides the config file",
		},
	}

	app.Before = func(c *cli.Context) error {
		conf := config.Default()
		if path := c.String(confFlagName); path != "" {
			var err error
			if conf, err = config.Load(path); err != nil {
				return err
			}
		}
		if uri := c.String(uriFlagName); uri != "" {
			conf.MongodbUrl = uri
		}
		if l := c.String(levelFlagName); l != "" {
			conf.LogLevel = l
		}
		if n := c.Int(batchSizeFlagName); n > 0 {
			conf.DisplayBatchSize = n
		}
		config.Set(conf)
		display.SetBatchSize(conf.DisplayBatchSize)
		return log.Setup(app.Name, conf.LogLevel)
	}

	app.Commands = []cli.Command{
		show(),
		count(),
		printField(),
		describe(),
		explain(),
		export(),
		latest(),
		examples(),
	}
	return app
}

// withOplog connects to the configured server, runs op against its oplog and
// disconnects.
func withOplog(op func(ctx context.Context, oplog *repo.Oplog) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repo.InitMongo(ctx, config.GetInstance().MongodbUrl); err != nil {
		return err
	}
	defer func() {
		grip.Warning(repo.CloseMongo(ctx))
	}()
	return op(ctx, repo.NewOplog(repo.GetMongoClient()))
}

// newPrinter pages output only when stdin is a terminal.
func newPrinter() *display.Printer {
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return display.NewPrinter(os.Stdout, os.Stdin)
	}
	return display.NewPrinter(os.Stdout, nil)
}

func show() cli.Command {
	return cli.Command{
		Name:  "show",
		Usage: "print the matching oplog entries",
		Flags: queryFlags(),
		Action: func(c *cli.Context) error {
			q, err := buildQuery(c)
			if err != nil {
				return err
			}
			return withOplog(func(ctx context.Context, oplog *repo.Oplog) error {
				return q.Show(ctx, oplog, newPrinter())
			})
		},
	}
}

func count() cli.Command {
	return cli.Command{
		Name:  "count",
		Usage: "print how many oplog entries match",
		Flags: queryFlags(),
		Action: func(c *cli.Context) error {
			q, err := buildQuery(c)
			if err != nil {
				return err
			}
			return withOplog(func(ctx context.Context, oplog *repo.Oplog) error {
				return q.Count(ctx, oplog, newPrinter())
			})
		},
	}
}

func printField() cli.Command {
	return cli.Command{
		Name:      "print-field",
		Usage:     "print one field of every matching entry, such as o._id",
		ArgsUsage: "<path>",
		Flags:     queryFlags(),
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return errors.New("a field path is required")
			}
			q, err := buildQuery(c)
			if err != nil {
				return err
			}
			return withOplog(func(ctx context.Context, oplog *repo.Oplog) error {
				return q.PrintField(ctx, oplog, newPrinter(), path)
			})
		},
	}
}

func describe() cli.Command {
	return cli.Command{
		Name:  "pipeline",
		Usage: "print the aggregation pipeline the query would run",
		Flags: queryFlags(),
		Action: func(c *cli.Context) error {
			q, err := buildQuery(c)
			if err != nil {
				return err
			}
			return q.Describe(newPrinter())
		},
	}
}

func explain() cli.Command {
	return cli.Command{
		Name:  "explain",
		Usage: "print only the stages added by the query flags",
		Flags: queryFlags(),
		Action: func(c *cli.Context) error {
			q, err := buildQuery(c)
			if err != nil {
				return err
			}
			return q.Explain(newPrinter())
		},
	}
}

func export() cli.Command {
	const indexFlagName = "index"

	return cli.Command{
		Name:  "export",
		Usage: "copy the matching entries into an elasticsearch index",
		Flags: queryFlags(cli.StringFlag{
			Name:  indexFlagName,
			Usage: "name of the elasticsearch index",
		}),
		Action: func(c *cli.Context) error {
			index := c.String(indexFlagName)
			if index == "" {
				return errors.Errorf("--%s is required", indexFlagName)
			}
			conf := config.GetInstance()
			if conf.ElasticsearchUrl == "" {
				return errors.New("elasticsearch_url is not configured")
			}
			q, err := buildQuery(c)
			if err != nil {
				return err
			}
			if err = repo.InitElastic(conf.ElasticsearchUrl, conf.ElasticsearchUsername, conf.ElasticsearchPassword); err != nil {
				return err
			}
			return withOplog(func(ctx context.Context, oplog *repo.Oplog) error {
				n, err := q.Export(ctx, oplog, sink.NewElastic(repo.GetElasticClient(), index))
				if err != nil {
					return err
				}
				fmt.Printf("exported %d entries to '%s'\n", n, index)
				return nil
			})
		},
	}
}

func latest() cli.Command {
	return cli.Command{
		Name:  "latest",
		Usage: "print the timestamp of the newest operation that is not a noop",
		Action: func(c *cli.Context) error {
			return withOplog(func(ctx context.Context, oplog *repo.Oplog) error {
				ts, err := oplog.LatestTimestamp(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%d,%d\n", ts.T, ts.I)
				return nil
			})
		},
	}
}

func examples() cli.Command {
	return cli.Command{
		Name:  "examples",
		Usage: "print examples and a reference of the query builder",
		Action: func(c *cli.Context) error {
			toff.Help(os.Stdout)
			return nil
		},
	}
}
