// Package main is the entry point for the crunchy application.
package main

import (
	"github.com/crunchy-cli/crunchy/cmd"
	"github.com/crunchy-cli/crunchy/config"
	"github.com/crunchy-cli/crunchy/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
