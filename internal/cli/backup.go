package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asa-tools/arkmgr/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage world backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Archive the server's Saved directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		b, err := m.backups.Create()
		if err != nil {
			if errors.Is(err, backup.ErrNothingToBackup) {
				return errors.New("nothing to back up, the server has no saved data yet")
			}
			return err
		}
		fmt.Printf("created backup %s (%s, %d bytes)\n", b.ID, b.Filename, b.SizeBytes)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		backups, err := m.backups.List()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("no backups yet")
			return nil
		}
		for _, b := range backups {
			fmt.Printf("%s  %s  %d bytes  %s\n", b.ID, b.CreatedAt, b.SizeBytes, b.Filename)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Replace the Saved directory with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if m.proc.Running() {
			return errors.New("stop the server before restoring a backup")
		}
		if err := m.backups.Restore(args[0]); err != nil {
			return err
		}
		fmt.Println("backup restored")
		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a backup archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.backups.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println("backup deleted")
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupDeleteCmd)
}
