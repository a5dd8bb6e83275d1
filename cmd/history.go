package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamctl/streamctl/color"
	"github.com/streamctl/streamctl/history"
	"github.com/streamctl/streamctl/icon"
	"github.com/streamctl/streamctl/style"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolP("json", "j", false, "Print JSON")
	historyCmd.Flags().StringP("remove", "r", "", "Forget the resume point of a reference")
	historyCmd.Flags().Bool("clear", false, "Forget every resume point")
	historyCmd.MarkFlagsMutuallyExclusive("json", "remove", "clear")
	historyCmd.SetOut(os.Stdout)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved resume points",
	Run: func(cmd *cobra.Command, args []string) {
		if ref := lo.Must(cmd.Flags().GetString("remove")); ref != "" {
			handleErr(history.Remove(ref))
			fmt.Printf("%s forgot %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), ref)
			return
		}

		if lo.Must(cmd.Flags().GetBool("clear")) {
			handleErr(history.Clear())
			fmt.Printf("%s history cleared\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		saved, err := history.Get()
		handleErr(err)

		entries := lo.Values(saved)
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(entries))
			return
		}

		if len(entries) == 0 {
			cmd.Println(style.Faint("no saved streams"))
			return
		}

		for _, e := range entries {
			cmd.Printf("%s %s\n", style.Fg(color.Purple)(fmt.Sprintf("%3.0f%%", e.Progress()*100)), e)
		}
	},
}
