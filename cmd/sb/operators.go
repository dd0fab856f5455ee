package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/roster"
)

func newOperatorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operators",
		Aliases: []string{"ops"},
		Short:   "Inspect and update operators",
	}

	cmd.AddCommand(newOperatorsListCmd())
	cmd.AddCommand(newOperatorsStatusCmd())
	cmd.AddCommand(newOperatorsResetCmd())
	return cmd
}

func newOperatorsListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operators with status, capacity and today's handled count",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRoster(configPath)
			if err != nil {
				return err
			}
			ops, err := store.List()
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No operators found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tMAX\tHANDLED\tSKILLS")
			for _, op := range ops {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					op.ID, op.Name, op.Status, op.MaxConcurrent, op.TodayHandled, strings.Join(op.Skills, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	return cmd
}

func newOperatorsStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <operator-id> <available|busy|break|offline>",
		Short: "Set an operator's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := roster.Status(args[1])
			if !status.Valid() {
				return fmt.Errorf("invalid status %q (want available, busy, break or offline)", args[1])
			}
			store, err := openRoster(configPath)
			if err != nil {
				return err
			}
			if err := store.SetStatus(args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Operator %s is now %s\n", args[0], status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	return cmd
}

func newOperatorsResetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reset-handled",
		Short: "Zero every operator's handled-today counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRoster(configPath)
			if err != nil {
				return err
			}
			if err := store.ResetHandled(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Handled counters reset.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	return cmd
}

// openRoster connects and returns the operator store. The schema must
// already exist (see "sb db init").
func openRoster(configPath string) (*roster.Store, error) {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, err
	}
	return roster.NewStore(gormDB)
}
