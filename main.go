package main

import (
	"baro-mod-manager/cmd"
	"baro-mod-manager/logger"

	_ "go.uber.org/automaxprocs"
)

func main() {
	defer logger.Sync() // Ensure logs are flushed on exit
	cmd.Execute()
}
