package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/archive"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse resolved chats",
	}

	cmd.AddCommand(newArchiveListCmd())
	cmd.AddCommand(newArchiveShowCmd())
	return cmd
}

func openArchive(configPath string) (*archive.GormStore, error) {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, err
	}
	return archive.NewGormStore(gormDB)
}

func newArchiveListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <customer-id>",
		Short: "List archived chats for a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(configPath)
			if err != nil {
				return err
			}
			entries, err := store.ForCustomer(args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No archived chats for %s.\n", args[0])
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tARCHIVED\tOPERATOR\tPRIORITY\tRESPONSE\tRESOLUTION\tSCORE\tSUBJECT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dm\t%dm\t%s\t%s\n",
					e.ID, e.ArchivedAt.Format("2006-01-02 15:04"), e.OperatorID, e.Priority,
					e.ResponseTime, e.ResolutionTime, score(e.Satisfaction), e.Subject)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	return cmd
}

func newArchiveShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <customer-id> <entry-id>",
		Short: "Print an archived transcript",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(configPath)
			if err != nil {
				return err
			}
			entries, err := store.ForCustomer(args[0])
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.ID != args[1] {
					continue
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s  %s (%s)\n", e.ID, e.Subject, e.Category)
				fmt.Fprintf(out, "Operator: %s  Resolution: %s  Score: %s\n\n", e.OperatorID, e.Resolution, score(e.Satisfaction))
				for _, m := range e.Messages {
					who := m.Sender
					if m.AgentID != "" {
						who += ":" + m.AgentID
					}
					fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), who, m.Content)
				}
				return nil
			}
			return fmt.Errorf("archive entry %s not found for customer %s", args[1], args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	return cmd
}

func score(s *int) string {
	if s == nil {
		return "-"
	}
	return strconv.Itoa(*s)
}
