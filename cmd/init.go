package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/olimci/bijou/cmd/embed"
	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/scaffold"
	"github.com/olimci/bijou/pkg/version"
	"github.com/urfave/cli/v3"
)

type initParams struct {
	Target string
	Title  string
	Lang   lang.Lang
	Force  bool
}

func Init(ctx context.Context, cmd *cli.Command) error {
	params := initParams{
		Target: ".",
		Title:  cmd.String("title"),
		Force:  cmd.Bool("force"),
	}
	if cmd.NArg() > 0 {
		params.Target = cmd.Args().First()
	}

	l, err := lang.Parse(cmd.String("lang"))
	if err != nil {
		return err
	}
	params.Lang = l

	quiet := cmd.Bool("quiet")
	if !cmd.Bool("yes") && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		if err := runInitForm(ctx, &params); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("init cancelled")
				return nil
			}
			return err
		}
	}

	absTarget, err := filepath.Abs(params.Target)
	if err != nil {
		return fmt.Errorf("resolving target directory: %w", err)
	}

	vars := scaffold.NewVariables(scaffold.VariablesConfig{
		Directory: absTarget,
		Title:     params.Title,
		Lang:      params.Lang,
		Version:   version.String(),
	})

	if !quiet {
		if params.Target == "." {
			fmt.Printf("Creating %s in current directory...\n", vars.Title)
		} else {
			fmt.Printf("Creating %s in %s...\n", vars.Title, params.Target)
		}
	}

	result, err := scaffold.New(embed.Scaffold, "scaffold").Build(ctx, absTarget,
		scaffold.WithForce(params.Force),
		scaffold.WithVariables(vars.ToMap()),
	)
	if err != nil {
		return err
	}

	if !quiet {
		for _, f := range result.FilesCreated {
			fmt.Printf("  + %s\n", filepath.ToSlash(f))
		}
		fmt.Println()
		fmt.Printf("Done! Created %d files.\n", len(result.FilesCreated))
		fmt.Println()
		fmt.Println("Next steps:")
		if params.Target != "." {
			fmt.Printf("  cd %s\n", params.Target)
		}
		fmt.Println("  bijou dev       # Start development server")
		fmt.Println("  bijou build     # Build for production")
	}

	return nil
}

func runInitForm(ctx context.Context, params *initParams) error {
	langValue := string(params.Lang)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Directory").
				Description("Where the site is created").
				Value(&params.Target),
			huh.NewInput().
				Title("Site title").
				Placeholder(scaffold.DefaultTitle).
				Value(&params.Title),
			huh.NewSelect[string]().
				Title("Default language").
				Options(
					huh.NewOption("Français", string(lang.French)),
					huh.NewOption("العربية", string(lang.Arabic)),
				).
				Value(&langValue),
			huh.NewConfirm().
				Title("Overwrite existing files?").
				Affirmative("Yes").
				Negative("No").
				Value(&params.Force),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.RunWithContext(ctx); err != nil {
		return err
	}

	l, err := lang.Parse(langValue)
	if err != nil {
		return err
	}
	params.Lang = l
	if params.Target == "" {
		params.Target = "."
	}
	return nil
}
