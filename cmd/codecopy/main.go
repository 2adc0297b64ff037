package main

import (
	"fmt"
	"os"

	"github.com/tyemirov/codecopy/internal/cli"
	"github.com/tyemirov/codecopy/internal/utils"
)

// main is the entry point for the codecopy command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(os.Getenv(utils.VerboseEnvironmentVariable) != "")
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(loggerInstance); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
