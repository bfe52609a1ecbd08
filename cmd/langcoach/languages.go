package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List available languages, or the ones you practise with --mine",
	RunE: func(cmd *cobra.Command, args []string) error {
		mine, _ := cmd.Flags().GetBool("mine")
		c := newClient()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()

		if mine {
			langs, err := c.MyLanguages(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ID\tLANGUAGE\tCODE\tADDED")
			for _, ul := range langs {
				name, code := "?", "?"
				if ul.Language != nil {
					name = ul.Language.FlagEmoji + " " + ul.Language.Name
					code = ul.Language.Code
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ul.LanguageID, name, code, ul.CreatedAt.Format("2006-01-02"))
			}
			return nil
		}

		langs, err := c.Languages(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tLANGUAGE\tCODE")
		for _, l := range langs {
			fmt.Fprintf(tw, "%s\t%s %s\t%s\n", l.ID, l.FlagEmoji, l.Name, l.Code)
		}
		return nil
	},
}

var addLanguageCmd = &cobra.Command{
	Use:   "add-language <language-id>",
	Short: "Add a language to your practice list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid language id: %w", err)
		}
		ul, err := newClient().AddLanguage(cmd.Context(), id)
		if err != nil {
			return err
		}
		name := id.String()
		if ul.Language != nil {
			name = ul.Language.Name
		}
		logger.Info("language added", "language", name)
		return nil
	},
}

func init() {
	languagesCmd.Flags().Bool("mine", false, "Only show languages you have added")
}
