package main

import (
	"flag"
	"fmt"
)

var (
	deploymentMode string
	configDir      string
	logDir         string
	httpPort       int
)

func init() {
	flag.StringVar(&deploymentMode, "deployment_mode", "production", "deployment mode: development or production")
	flag.StringVar(&configDir, "config_dir", "./config", "config_dir")
	flag.StringVar(&logDir, "log_dir", "logs", "log_dir")
	flag.IntVar(&httpPort, "port", 0, "port, overrides server.port from the config file")
}

func parseFlags() {
	fmt.Print("[1/5] load flags")
	flag.Parse()
	fmt.Print("		[OK]\n")
}
