// Package main provides a command-line REPL over a single kademlia
// routing table, for manual inspection and scripted integration tests.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kademux/kademlia/kademlia"
	"github.com/sirupsen/logrus"
)

// cliConfig holds command-line configuration for the driver.
type cliConfig struct {
	ownGUID    string
	configPath string
	logLevel   string
	help       bool
}

func parseCLIFlags() *cliConfig {
	cfg := &cliConfig{}
	flag.StringVar(&cfg.ownGUID, "guid", "", "this table's own identifier (hex); required")
	flag.StringVar(&cfg.configPath, "config", "", "path to a YAML tuning config (default: built-in defaults)")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.help, "help", false, "show help message")
	flag.Parse()
	return cfg
}

func printUsage() {
	fmt.Println("kademliatable - interactive Kademlia routing table")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s -guid <hex-identifier> [options]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Once running, type `help` at the prompt for the command list.")
}

func main() {
	os.Exit(run())
}

func run() int {
	cliCfg := parseCLIFlags()

	if cliCfg.help {
		printUsage()
		return 0
	}

	if err := configureLogging(cliCfg.logLevel); err != nil {
		logrus.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("invalid log level")
		return 1
	}

	tableCfg, err := loadTableConfig(cliCfg.configPath)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"error":       err.Error(),
			"config_path": cliCfg.configPath,
		}).Error("failed to load config")
		return 1
	}

	if cliCfg.ownGUID == "" {
		fmt.Fprintln(os.Stderr, "ERR -guid is required; use -help for usage information")
		return 1
	}
	ownGUID, err := kademlia.ParseIdentifierBits(cliCfg.ownGUID, tableCfg.BitNodeIDLen)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"error": err.Error(),
			"guid":  cliCfg.ownGUID,
		}).Error("invalid own guid")
		return 1
	}

	log := logrus.WithField("own_guid", ownGUID.String())
	rt := kademlia.NewRoutingTable(ownGUID, tableCfg, nil, nil, log)

	cli := NewCLI(rt, os.Stdin, os.Stdout)
	if err := cli.Run(); err != nil {
		log.WithFields(logrus.Fields{"error": err.Error()}).Error("repl exited with error")
		return 1
	}
	return 0
}

func configureLogging(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	logrus.SetLevel(parsed)
	return nil
}

func loadTableConfig(path string) (*kademlia.Config, error) {
	if path == "" {
		return kademlia.DefaultConfig(), nil
	}
	return kademlia.LoadConfig(path)
}
