package main

import (
	"os"

	"github.com/jhoicas/cfdi-sellador/internal/interfaces/cli"
)

func main() {
	if err := cli.New().Execute(); err != nil {
		os.Exit(1)
	}
}
