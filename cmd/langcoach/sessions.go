package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List your recent practice sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		langStr, _ := cmd.Flags().GetString("language")
		limit, _ := cmd.Flags().GetInt("limit")

		var languageID *uuid.UUID
		if langStr != "" {
			id, err := uuid.Parse(langStr)
			if err != nil {
				return fmt.Errorf("invalid --language: %w", err)
			}
			languageID = &id
		}

		sessions, err := newClient().ListSessions(cmd.Context(), languageID, limit, 0)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		fmt.Fprintln(tw, "WHEN\tTYPE\tFIRST MESSAGE")
		for _, s := range sessions {
			first := ""
			if len(s.Messages) > 0 {
				first = truncate(s.Messages[0].Content, 60)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"), s.SessionType, first)
		}
		return nil
	},
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	sessionsCmd.Flags().String("language", "", "Only sessions for this language ID")
	sessionsCmd.Flags().Int("limit", 20, "Maximum number of sessions")
}
