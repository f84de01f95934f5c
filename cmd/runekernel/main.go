package main

import (
	"log"
	"os"

	"github.com/hamba/cmd"
	"github.com/nrwiersma/runekernel"
	"gopkg.in/urfave/cli.v2"
)

import _ "github.com/joho/godotenv/autoload"

const (
	flagData        = "data"
	flagDelay       = "delay"
	flagFail        = "fail"
	flagMachine     = "machine"
	flagThen        = "then"
	flagConcurrency = "concurrency"
	flagExport      = "export"
	flagFile        = "file"
	flagState       = "state"
)

var version = "¯\\_(ツ)_/¯"

var commands = []*cli.Command{
	{
		Name:  "run",
		Usage: "Submit and run a single job",
		Flags: cmd.Flags{
			&cli.StringSliceFlag{
				Name:    flagData,
				Usage:   "Job data as key=value. Values are parsed as JSON when possible.",
				EnvVars: []string{"RUNEKERNEL_DATA"},
			},
			&cli.DurationFlag{
				Name:    flagDelay,
				Usage:   "How long the job works for.",
				Value:   runekernel.DefaultDelay,
				EnvVars: []string{"RUNEKERNEL_DELAY"},
			},
			&cli.BoolFlag{
				Name:    flagFail,
				Usage:   "Make the job work fail.",
				EnvVars: []string{"RUNEKERNEL_FAIL"},
			},
			&cli.StringFlag{
				Name:    flagMachine,
				Usage:   "The path to a YAML state machine definition.",
				EnvVars: []string{"RUNEKERNEL_MACHINE"},
			},
			&cli.StringFlag{
				Name:    flagThen,
				Usage:   "A state to transition the job to once its work is done.",
				EnvVars: []string{"RUNEKERNEL_THEN"},
			},
			&cli.Int64Flag{
				Name:    flagConcurrency,
				Usage:   "The number of jobs allowed to work at once.",
				Value:   runekernel.DefaultMaxConcurrentJobs,
				EnvVars: []string{"RUNEKERNEL_CONCURRENCY"},
			},
			&cli.StringFlag{
				Name:    flagExport,
				Usage:   "The path to write a job snapshot to.",
				EnvVars: []string{"RUNEKERNEL_EXPORT"},
			},
		}.Merge(cmd.CommonFlags),
		Action: runJob,
	},
	{
		Name:  "inspect",
		Usage: "Print the jobs in a snapshot",
		Flags: cmd.Flags{
			&cli.StringFlag{
				Name:    flagFile,
				Usage:   "The path of the snapshot to read.",
				EnvVars: []string{"RUNEKERNEL_FILE"},
			},
			&cli.StringFlag{
				Name:    flagState,
				Usage:   "Only print jobs in this state.",
				EnvVars: []string{"RUNEKERNEL_STATE"},
			},
		}.Merge(cmd.CommonFlags),
		Action: runInspect,
	},
	{
		Name:  "machine",
		Usage: "Validate and print a YAML state machine definition",
		Flags: cmd.Flags{
			&cli.StringFlag{
				Name:    flagFile,
				Usage:   "The path of the machine definition.",
				EnvVars: []string{"RUNEKERNEL_MACHINE"},
			},
		},
		Action: runMachine,
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "runekernel",
		Version:  version,
		Commands: commands,
	}
}

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
