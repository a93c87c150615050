package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/prefs"
	"github.com/urfave/cli/v3"
)

// Lang prints the stored language preference, or changes it when given a
// language or "toggle".
func Lang(ctx context.Context, cmd *cli.Command) error {
	store, err := langStore(cmd)
	if err != nil {
		return err
	}
	current := prefs.Resolve(store)

	var next lang.Lang
	switch arg := strings.TrimSpace(cmd.Args().First()); arg {
	case "":
		fmt.Printf("%s (%s)\n", current, current.Dir())
		return nil
	case "toggle":
		next = current.Other()
	default:
		if next, err = lang.Parse(arg); err != nil {
			return err
		}
	}

	if err := store.SetLanguage(next); err != nil {
		return fmt.Errorf("saving language preference: %w", err)
	}
	fmt.Printf("%s (%s), switch shows %s\n", next, next.Dir(), next.SwitchLabel())
	return nil
}
