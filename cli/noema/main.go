package main

import (
	"os"

	noemacmder "github.com/noemaco/noema/cmd/noema"
	"github.com/noemaco/noema/pkg/logger"
)

func main() {
	cmd := noemacmder.NewNoemaCmd()
	if err := cmd.Execute(); err != nil {
		logger.NewCLI(false).Error(err.Error())
		os.Exit(1)
	}
}
