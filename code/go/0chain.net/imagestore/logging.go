package main

import (
	"fmt"

	"github.com/0chain/imagestore/code/go/0chain.net/core/logging"

	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/config"
)

func setupLogging() {
	fmt.Print("[3/5] init logging")

	if config.Development() {
		logging.InitLogging("development", logDir, "imagestore.log")
	} else {
		logging.InitLogging("production", logDir, "imagestore.log")
	}

	fmt.Print("		[OK]\n")
}
