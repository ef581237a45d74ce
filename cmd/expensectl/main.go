package main

import (
	"os"

	"github.com/williamn/expense-assistant/cmd/expensectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
