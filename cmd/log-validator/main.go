package notmain

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/letsencrypt/certval/cmd"
	blog "github.com/letsencrypt/certval/log"
	"github.com/letsencrypt/certval/log/validator"
)

// Config is the YAML config of the log-validator subcommand.
type Config struct {
	Syslog    cmd.SyslogConfig `yaml:"syslog"`
	DebugAddr string           `yaml:"debugAddr" validate:"omitempty,hostname_port"`
	// Files are globs of log files to follow. New matches are picked up
	// while running.
	Files []string `yaml:"files" validate:"min=1,dive,required"`
}

// checkFiles validates each file once and reports whether all lines were
// valid.
func checkFiles(files []string, logger blog.Logger) (bool, error) {
	ok := true
	for _, filename := range files {
		res, err := validator.ValidateFile(filename, logger)
		if err != nil {
			return false, fmt.Errorf("validating %s: %w", filename, err)
		}
		logger.Infof("%s: %d lines, %d bad", filename, res.Lines, res.Bad)
		if res.Bad > 0 {
			ok = false
		}
	}
	return ok, nil
}

func main() {
	configFile := flag.String("config", "", "File path to the configuration file for this service")
	checkFile := flag.String("check-file", "", "File path to a file to directly validate, if this argument is provided the config will not be parsed and only this file will be inspected")
	flag.Parse()

	if *checkFile != "" {
		logger := cmd.NewLogger(cmd.SyslogConfig{StdoutLevel: 6, SyslogLevel: -1})
		ok, err := checkFiles([]string{*checkFile}, logger)
		cmd.FailOnError(err, "Failed to validate file")
		if !ok {
			os.Exit(1)
		}
		return
	}

	if *configFile == "" {
		flag.Usage()
		os.Exit(1)
	}
	var c Config
	err := cmd.ReadConfigFile(*configFile, &c)
	cmd.FailOnError(err, "Reading config file")

	stats, logger := cmd.StatsAndLogging(c.Syslog, c.DebugAddr)
	defer logger.AuditPanic()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("Following %d log file patterns", len(c.Files))
	validator.NewFollower(c.Files, logger, stats).Run(ctx)
	logger.Info("Shut down")
}

func init() {
	cmd.RegisterCommand(cmd.Command{
		Name:    "log-validator",
		Summary: "Check the line checksums of certval log files",
		Run:     main,
		Config:  &cmd.ConfigValidator{Config: &Config{}},
	})
}
