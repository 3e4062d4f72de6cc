package main

import "github.com/asa-tools/arkmgr/internal/cli"

func main() {
	cli.Execute()
}
