package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamctl/streamctl/constant"
	"github.com/streamctl/streamctl/icon"
	"github.com/streamctl/streamctl/key"
	"github.com/streamctl/streamctl/mpv"
	"github.com/streamctl/streamctl/style"
	"github.com/streamctl/streamctl/version"
)

// minMPV is the oldest mpv whose IPC reports end-file reasons and file errors.
const minMPV = "0.33.0"

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that mpv is installed",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		binary := viper.GetString(key.MPVBinary)
		install, err := mpv.Locate(ctx, binary)
		if err != nil {
			printMissingDependency(binary)
			handleErr(err)
		}

		fmt.Printf("%s %s\n", icon.Get(icon.Success), install.Version)
		fmt.Println(style.Faint(install.Path))

		if v := mpvVersion(install.Version); v != "" {
			if cmp, err := version.Compare(v, minMPV); err == nil && cmp < 0 {
				fmt.Printf("%s mpv %s is older than %s, error reporting may be incomplete\n", icon.Get(icon.Warn), v, minMPV)
			}
		}
	},
}

// mpvVersion extracts the semantic version from a line such as "mpv v0.37.0-dirty Copyright ...".
func mpvVersion(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "mpv" {
		return ""
	}
	return strings.TrimPrefix(fields[1], "v")
}

func printMissingDependency(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install mpv"
	case constant.Linux:
		installCmd = "sudo apt install mpv"
	case constant.Windows:
		installCmd = "scoop install mpv"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Missing dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("'%s' was not found in your PATH.", dep))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
