package main

import (
	"os"

	"github.com/panelkit/panelkit/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
