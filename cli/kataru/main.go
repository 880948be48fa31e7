package main

import (
	"os"

	katarucmder "github.com/papercomputeco/kataru/cmd/kataru"
)

func main() {
	cmd := katarucmder.NewKataruCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
