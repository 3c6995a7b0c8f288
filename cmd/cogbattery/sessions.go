package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"cogbattery/internal/persistence"
	"cogbattery/pkg/domain"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func sessionsCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List sessions in the configured store",
		Flags: append(settingsFlags(), &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			store, err := persistence.Open(ctx, s.Store)
			if err != nil {
				return err
			}
			if store == nil {
				return goerr.New("session store is disabled")
			}
			defer func() { _ = store.Close() }()

			list, err := store.ListSessions(ctx)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				enc := json.NewEncoder(d.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printSessions(d, list)
		},
	}
}

func printSessions(d deps, list []domain.SessionSummary) error {
	tw := tabwriter.NewWriter(d.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tCONDITION\tSTARTED\tTASKS\tROWS")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			s.ID, s.SubNum, s.Condition, s.StartedAt.Format(domain.DateTimeLayout), strings.Join(s.Tasks, ", "), s.Rows)
	}
	return tw.Flush()
}
