package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nace/udevbackup/internal/cli"
)

func main() {
	ctx := cli.NewGlobalContext(false, false, false, false)
	err := cli.NewRootCommand(ctx).Execute()
	ctx.Close()

	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}
