package main

import (
	"fmt"
	"os"
)

func main() {
	root := buildRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "medgemmactl:", err)
		os.Exit(1)
	}
}
