package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asa-tools/arkmgr/internal/db"
)

var rconCmd = &cobra.Command{
	Use:   "rcon [command...]",
	Short: "Run an RCON command, or open an interactive console",
	Long: `With arguments, runs a single command and prints the reply.
Without arguments, opens an interactive console. Common commands:
SaveWorld, ListPlayers, Broadcast <message>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if len(args) > 0 {
			command := strings.Join(args, " ")
			response, err := m.execRCON(command)
			if err != nil {
				return err
			}
			db.RecordCommand(m.db, db.SourceCLI, command, response)
			if response == "" {
				fmt.Println("(no output)")
			} else {
				fmt.Println(response)
			}
			return nil
		}

		return rconConsole(m)
	},
}

// rconConsole keeps one authenticated session open and loops until the
// operator types exit.
func rconConsole(m *manager) error {
	client, err := m.dialRCON("")
	if err != nil {
		fmt.Println("connection failed, check that:")
		fmt.Println("  1. the server is running")
		fmt.Println("  2. RCON is enabled in the server settings")
		fmt.Println("  3. the admin password is correct")
		return err
	}
	defer client.Close()

	fmt.Println("connected, type 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("RCON> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		if strings.EqualFold(command, "exit") {
			return nil
		}

		response, err := client.Execute(command)
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}
		db.RecordCommand(m.db, db.SourceCLI, command, response)
		if response == "" {
			fmt.Println("(no output)")
		} else {
			fmt.Println(response)
		}
	}
}
