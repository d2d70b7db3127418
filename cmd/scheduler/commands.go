package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"scheduler/internal/config"
	"scheduler/internal/export"
	"scheduler/internal/ics"
	appLog "scheduler/internal/log"
	"scheduler/internal/model"
	"scheduler/internal/picker"
	"scheduler/internal/schedule"
	"scheduler/internal/source"
	"scheduler/internal/web"
)

var sourceFlag = cli.StringFlag{
	Name:  "source-url",
	Usage: "Inspection request endpoint (overrides config if set)",
}

var serveCmd = cli.Command{
	Name:  "serve",
	Usage: "Load the initial events and serve the calendar API",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "listen",
			Usage: "HTTP listen address (overrides config if set)",
		},
		sourceFlag,
	},
	Action: serve,
}

var fetchCmd = cli.Command{
	Name:   "fetch",
	Usage:  "Fetch inspection requests once and print the resulting events",
	Flags:  []cli.Flag{sourceFlag},
	Action: fetch,
}

var exportCmd = cli.Command{
	Name:  "export",
	Usage: "Fetch inspection requests once and write them as an ICS calendar",
	Flags: []cli.Flag{
		sourceFlag,
		cli.StringFlag{
			Name:  "output, o",
			Usage: "Output file, - for stdout",
			Value: "-",
		},
	},
	Action: exportOnce,
}

// loadConfig reads the config file and applies global and command overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.GlobalString("config")
	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if c.GlobalBool("debug") {
		appLog.SetLevel(appLog.LevelDebug)
	}

	if v := c.String("listen"); v != "" {
		conf.Listen = v
	}
	if v := c.String("source-url"); v != "" {
		conf.Source.URL = v
	}
	return conf, nil
}

func loadInitial(ctx context.Context, conf *config.Config) source.Result {
	f := source.NewFetcher(conf.Source.URL, conf.Source.Timeout)
	return source.LoadInitial(ctx, f)
}

func serve(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	appLog.Info("scheduler starting", "version", appVersion)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"slot_minutes", conf.SlotMinutes,
		"conflict_rule", conf.ConflictRule,
		"recheck_on_edit", conf.RecheckOnEdit,
		"export_path", conf.Export.Path,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start-up load: one request, empty calendar on failure.
	initial := loadInitial(ctx, conf)

	store := schedule.NewStore(initial.Events...)
	wf := schedule.NewWorkflow(store, schedule.Options{
		Rule:          conf.Rule(),
		RecheckOnEdit: conf.RecheckOnEdit,
	})
	srv := web.NewServer(conf, wf, initial.Records)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if conf.Export.Path != "" {
		snap := export.NewSnapshotter(conf.Export.Path, conf.Export.Cron, "Inspections", srv.Events)
		g.Go(func() error {
			return snap.Run(gctx)
		})
	}

	err = g.Wait()
	appLog.Info("scheduler exiting")
	return err
}

func fetch(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initial := loadInitial(ctx, conf)
	if initial.Err != nil {
		return initial.Err
	}

	loc := conf.Location()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tSTART\tEND")
	for _, e := range initial.Events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Title, picker.Format(e.Start.In(loc)), picker.Format(e.End.In(loc)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d records, %d events\n", len(initial.Records), len(initial.Events))
	return nil
}

func exportOnce(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initial := loadInitial(ctx, conf)
	if initial.Err != nil {
		return initial.Err
	}
	events := schedule.NewStore(initial.Events...).List()

	out := c.String("output")
	if out == "-" || out == "" {
		return writeICS(os.Stdout, events)
	}
	snap := export.NewSnapshotter(out, conf.Export.Cron, "Inspections", func() []model.Event { return events })
	return snap.WriteOnce()
}

func writeICS(w io.Writer, events []model.Event) error {
	return ics.Encode(w, events, ics.Options{Name: "Inspections", Stamp: time.Now()})
}
