package main

import (
	"fmt"
	"os"

	"github.com/zurustar/tinyscript/pkg/app"
	"github.com/zurustar/tinyscript/pkg/compiler"
)

func main() {
	application := app.New()
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", compiler.FormatError(err))
		os.Exit(1)
	}
}
