package main

import (
	"os"
	"os/signal"

	"github.com/austin-smith/fusion-bridge/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main sets up logging based on the DEBUG_FUSION environment variable,
// starts a goroutine to listen for interrupt signals, and executes the root
// command.
func main() {
	configureLogLevelFromEnv()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan,
		func(msg string) { log.Fatal().Msg(msg) },
		os.Exit,
	)

	cmd.Execute()
}

// configureLogLevelFromEnv enables debug logging when DEBUG_FUSION is set to
// anything other than "false" or "0"; logging is disabled otherwise.
func configureLogLevelFromEnv() {
	switch os.Getenv("DEBUG_FUSION") {
	case "", "false", "0":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// setupInterruptListener registers for os.Interrupt and returns the channel
// the signal will arrive on.
func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt blocks until a signal arrives, logs, and exits.
func handleInterrupt(stopChan chan os.Signal, fatalLog func(string), exit func(int)) {
	<-stopChan
	fatalLog("Interrupt signal received. Exiting...")
	exit(1)
}
