// Package main is the entry point for streamctl.
package main

import (
	"github.com/samber/lo"
	"github.com/streamctl/streamctl/cmd"
	"github.com/streamctl/streamctl/config"
	"github.com/streamctl/streamctl/log"
	"github.com/streamctl/streamctl/mpv"
	"github.com/streamctl/streamctl/where"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())
	defer func() { _ = log.Close() }()

	go mpv.PruneSockets(where.Sockets(), mpv.StaleSocketAge)

	cmd.Execute()
}
