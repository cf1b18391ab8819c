package main

import (
	"bilancio/internal/admin"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAdmin)
	admin.Execute(config.Load().SQLiteDBPath, logger)
}
