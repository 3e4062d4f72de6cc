package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asa-tools/arkmgr/internal/logview"
)

var logsCmd = &cobra.Command{
	Use:   "logs [file]",
	Short: "Show server logs",
	Long:  "Without arguments, tails the newest log file. Pass a file name to tail a specific one, or --list to enumerate them.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if viper.GetBool("list") {
			files, err := m.logs.List()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("no log files yet")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%s  %d bytes  %s\n", f.ModTime.Format("2006-01-02 15:04:05"), f.Size, f.Name)
			}
			return nil
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		} else {
			name, err = m.logs.Newest()
			if err != nil {
				if errors.Is(err, logview.ErrNoLogs) {
					return errors.New("no log files yet, start the server first")
				}
				return err
			}
		}

		lines, err := m.logs.Tail(name, viper.GetInt("lines"))
		if err != nil {
			return err
		}
		fmt.Printf("=== %s ===\n", name)
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().Bool("list", false, "list log files instead of tailing")
	logsCmd.Flags().Int("lines", 50, "number of lines to show")
}
