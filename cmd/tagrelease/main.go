package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/user/tagrelease/internal/app"
	"github.com/user/tagrelease/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		var exitErr *app.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
