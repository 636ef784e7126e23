package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/thimc/edsafe/internal/config"
	"github.com/thimc/edsafe/internal/logging"
	"github.com/thimc/edsafe/internal/signals"
)

const (
	version = "0.3"
	usage   = `line-oriented text editor

ed edits a buffer of lines read from a file. A hangup saves a modified
buffer to ed.hup in the current directory, or in $HOME if that fails. An
interrupt abandons the command being executed and prints "?".
`
)

func main() {
	app := cli.NewApp()
	app.Name = "ed"
	app.Usage = usage
	app.Version = version
	app.ArgsUsage = "[file]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "p, prompt",
			Usage: "use `STRING` as the command prompt",
		},
		cli.BoolFlag{
			Name:  "s, silent",
			Usage: "suppress byte counts and diagnostics",
		},
		cli.BoolFlag{
			Name:  "v, verbose",
			Usage: "print error explanations instead of ?",
		},
		cli.StringFlag{
			Name:  "config",
			Value: config.Path(),
			Usage: "path to the configuration file",
		},
		cli.StringFlag{
			Name:  "log-file",
			Usage: "write the diagnostic log to `FILE`",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug output for logging",
		},
	}
	app.Action = runAction

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	l := logrus.StandardLogger()
	closer, err := logging.Setup(l, cfg.Log, os.Stderr, c.Bool("debug"))
	if err != nil {
		return err
	}
	defer closer.Close()

	co := signals.New(signals.WithLogger(l))
	if err := co.Install(); err != nil {
		return err
	}
	defer co.Stop()

	prompt := cfg.Prompt
	if c.IsSet("prompt") {
		prompt = c.String("prompt")
	}
	ed := NewEditor(
		WithCoordinator(co),
		WithLogger(l),
		WithPrompt(prompt),
		WithSilent(cfg.Silent || c.Bool("silent")),
		WithVerbose(cfg.Verbose || c.Bool("verbose")),
		WithFile(c.Args().First()),
	)
	if err := ed.Run(context.Background()); err != nil {
		return err
	}
	if ed.Failed() {
		return cli.NewExitError("", 1)
	}
	return nil
}
