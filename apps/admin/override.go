package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/trezcool/presence/core/period"
)

func (cli *commandLine) override(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}

	createCmd := flag.NewFlagSet("override create", flag.ContinueOnError)
	createFile := createCmd.String("file", "", "JSON file holding the new override.")

	idCmd := flag.NewFlagSet("override "+args[0], flag.ContinueOnError)
	id := idCmd.String("id", "", "The override's ID.")

	switch args[0] {
	case "list":
		overrides, err := cli.overrides.List(ctx)
		if err != nil {
			return err
		}
		return cli.print(overrides)

	case "create":
		if err := createCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *createFile == "" {
			createCmd.Usage()
			return errHelp
		}
		data, err := os.ReadFile(*createFile)
		if err != nil {
			return err
		}
		var no period.NewOverride
		if err = json.Unmarshal(data, &no); err != nil {
			return err
		}
		o, err := cli.overrides.Create(ctx, no)
		if err != nil {
			return err
		}
		return cli.print(o)

	case "activate", "deactivate", "delete":
		if err := idCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" {
			idCmd.Usage()
			return errHelp
		}
		switch args[0] {
		case "activate":
			return cli.overrides.Activate(ctx, *id)
		case "deactivate":
			return cli.overrides.Deactivate(ctx, *id)
		default:
			return cli.overrides.Delete(ctx, *id)
		}

	default:
		cli.printUsage()
		return errHelp
	}
}
