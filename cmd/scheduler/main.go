package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	appLog "scheduler/internal/log"
)

const (
	appName    = "scheduler"
	appVersion = "0.1.0"
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "Inspection calendar: load assigned inspections and add, edit and conflict-check events"
	app.Version = appVersion
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Usage:  "Path to config file",
			Value:  "/etc/scheduler/config.yaml",
			EnvVar: "SCHEDULER_CONFIG",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Output debug messages",
		},
	}
	app.Commands = []cli.Command{
		serveCmd,
		fetchCmd,
		exportCmd,
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("scheduler failed", err)
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
