package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/scenario"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/suite"
)

var listCommand = &cli.Command{
	Name:      "list",
	Usage:     "List scenarios, tags or workbook sheets",
	ArgsUsage: "[suite.yaml]",
	Description: `Print the scenario catalog. With a suite file only the scenarios it
selects are listed.

Examples:
  shopflow list
  shopflow list suites/smoke.yaml
  shopflow list --tags
  shopflow list --sheets --data testdata/TestData.xlsx
  shopflow list --inspect reports/latest/assets/scenario-003/attempt-1-page.html`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "tags",
			Usage: "List the distinct tags instead of scenarios",
		},
		&cli.BoolFlag{
			Name:  "sheets",
			Usage: "List the sheets of the test data workbook",
		},
		&cli.StringFlag{
			Name:  "data",
			Usage: "Test data workbook (default: data.workbook from config)",
		},
		&cli.StringFlag{
			Name:  "inspect",
			Usage: "Summarize a saved page source instead",
		},
	},
	Action: func(c *cli.Context) error {
		w := os.Stdout
		reg := scenario.Default()
		switch {
		case c.String("inspect") != "":
			return inspectPage(w, c.String("inspect"))
		case c.Bool("tags"):
			for _, t := range reg.Tags() {
				fmt.Fprintln(w, t)
			}
			return nil
		case c.Bool("sheets"):
			workbook := c.String("data")
			if workbook == "" {
				cfg, err := loadConfig(c)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				workbook = cfg.Data.Workbook
			}
			return listSheets(w, config.ResolvePath(workbook))
		}

		desc := suite.Default()
		if path := c.Args().First(); path != "" {
			var err error
			if desc, err = suite.ParseFile(path); err != nil {
				return err
			}
		}
		return listScenarios(w, reg, desc)
	},
}

func listScenarios(w io.Writer, reg *scenario.Registry, desc *suite.Descriptor) error {
	selections, err := desc.Resolve(reg)
	if err != nil {
		return err
	}
	for _, sel := range selections {
		s := sel.Scenario
		line := fmt.Sprintf("%-12s %s", s.ID, s.Name)
		if len(s.Tags) > 0 {
			line += fmt.Sprintf(" %s[%s]%s", color(colorGray), strings.Join(s.Tags, ", "), color(colorReset))
		}
		if sel.Sheet != "" {
			line += fmt.Sprintf(" %s(sheet %s)%s", color(colorCyan), sel.Sheet, color(colorReset))
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d scenario(s)\n", len(selections))
	return nil
}

func listSheets(w io.Writer, workbook string) error {
	sheets, err := dataprovider.New(workbook, nil).Sheets()
	if err != nil {
		return err
	}
	for _, s := range sheets {
		fmt.Fprintln(w, s)
	}
	return nil
}

func inspectPage(w io.Writer, path string) error {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided page dump
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}
	snap, err := session.ParseSnapshot(string(data))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, snap.Summary())
	for _, f := range snap.Fields {
		fmt.Fprintf(w, "  field    %s\n", f)
	}
	fmt.Fprintf(w, "  links    %d\n", snap.Links)
	return nil
}
