package cli

import (
	"errors"
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Report *ReportCommand
	Serve  *ServeCommand
	Status *StatusCommand
	Add    *AddCommand
	Close  *CloseCommand
	Prune  *PruneCommand
	Purge  *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "lookback"
	parser.LongDescription = "Privacy-first local browser activity tracking: which tabs and sites you used, and for how long."

	cmds := &commands{
		Report: &ReportCommand{globals: &globals, version: version},
		Serve:  &ServeCommand{globals: &globals, version: version},
		Status: &StatusCommand{globals: &globals, version: version},
		Add:    &AddCommand{globals: &globals, version: version},
		Close:  &CloseCommand{globals: &globals, version: version},
		Prune:  &PruneCommand{globals: &globals, version: version},
		Purge:  &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("report", "Show activity for a time window", "Show per-tab, per-site active time and visit counts for a time window.", cmds.Report)
	parser.AddCommand("serve", "Start the local query API", "Start the local HTTP API used by the browser extension.", cmds.Serve)
	parser.AddCommand("status", "Show database statistics", "Show database statistics and configuration summary.", cmds.Status)
	parser.AddCommand("add", "Manually record a navigation", "Manually record a navigation and page visit on a tab.", cmds.Add)
	parser.AddCommand("close", "Close a tab", "Close a tab together with its open session and active interval.", cmds.Close)
	parser.AddCommand("prune", "Apply retention pruning", "Delete tabs closed before the retention cutoff.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL Lookback activity", "Delete ALL Lookback activity. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the Lookback CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("lookback %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}

	return nil
}
