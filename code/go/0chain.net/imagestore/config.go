package main

import (
	"fmt"
	"os"

	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/config"
)

func setupConfig() {
	fmt.Print("[2/5] load config")

	config.SetupDefaultConfig()
	if _, err := os.Stat(configDir + "/imagestore.yaml"); err == nil {
		config.SetupConfig(configDir)
	} else {
		// No config file is fine for local runs; defaults cover everything.
		config.ReadConfig()
	}

	config.Configuration.DeploymentMode = deploymentMode
	if httpPort > 0 {
		config.Configuration.Port = httpPort
	}

	fmt.Print("		[OK]\n")
}
