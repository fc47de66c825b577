// Package cmd provides utilities that underlie the specific commands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/syslog"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/jmhodges/clock"
	"github.com/letsencrypt/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/letsencrypt/certval/config"
	"github.com/letsencrypt/certval/core"
	blog "github.com/letsencrypt/certval/log"
	"github.com/letsencrypt/certval/strictyaml"
)

// NewLogger creates a logger object with the provided settings, sets it as
// the global logger, and returns it.
func NewLogger(logConf SyslogConfig) blog.Logger {
	var logger blog.Logger
	if logConf.SyslogLevel >= 0 {
		syslogger, err := syslog.Dial(
			"",
			"",
			syslog.LOG_INFO, // default, not actually used
			core.Command())
		FailOnError(err, "Could not connect to Syslog")
		syslogLevel := int(syslog.LOG_INFO)
		if logConf.SyslogLevel != 0 {
			syslogLevel = logConf.SyslogLevel
		}
		logger, err = blog.New(syslogger, logConf.StdoutLevel, syslogLevel)
		FailOnError(err, "Could not connect to Syslog")
	} else {
		logger = blog.StdoutLogger(logConf.StdoutLevel)
	}

	_ = blog.Set(logger)
	blog.InitAdapters(logger)
	return logger
}

// StatsAndLogging sets up a logger and a Prometheus registry. When addr is
// not empty the registry is served on addr at /metrics.
func StatsAndLogging(logConf SyslogConfig, addr string) (prometheus.Registerer, blog.Logger) {
	logger := NewLogger(logConf)
	return newStatsRegistry(addr, logger), logger
}

func newStatsRegistry(addr string, logger blog.Logger) prometheus.Registerer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if addr == "" {
		logger.Info("No debug listen address specified")
		return registry
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: promLogger{logger},
	}))

	server := http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: time.Minute,
	}
	logger.Infof("Debug server listening on %s", addr)
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errf("unable to boot debug server on %s: %v", addr, err)
			os.Exit(1)
		}
	}()
	return registry
}

// promLogger adapts a blog.Logger to promhttp's error logger.
type promLogger struct {
	blog.Logger
}

func (log promLogger) Println(args ...any) {
	log.AuditErr(fmt.Sprint(args...))
}

// AuditPanic catches and logs panics, then re-panics. It should be deferred
// as early as possible in main.
func AuditPanic() {
	blog.Get().AuditPanic()
}

// Clock returns a clock.Clock, or a fake clock set to the time in the
// FAKECLOCK environment variable when that is set. FAKECLOCK must be in
// time.RFC3339 format.
func Clock() clock.Clock {
	if tgt := os.Getenv("FAKECLOCK"); tgt != "" {
		targetTime, err := time.Parse(time.RFC3339, tgt)
		FailOnError(err, "cmd.Clock: bad format for FAKECLOCK")

		cl := clock.NewFake()
		cl.Set(targetTime)
		blog.Get().Debugf("Time was set to %v via FAKECLOCK", targetTime)
		return cl
	}
	return clock.New()
}

// FailOnError prints an error message and exits with a non-zero status if
// err is non-nil.
func FailOnError(err error, msg string) {
	if err == nil {
		return
	}
	logger := blog.Get()
	logger.AuditErrf("%s: %s", msg, err)
	fmt.Fprintf(os.Stderr, "%s: %s\n", msg, err)
	os.Exit(1)
}

// ReadConfigFile reads the YAML config file at filename into out. Unknown
// keys are errors.
func ReadConfigFile(filename string, out any) error {
	configData, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return strictyaml.Unmarshal(configData, out)
}

// ValidateYAMLConfig reads the YAML config from in into cv.Config and checks
// it against the validate tags of its struct, using any custom validators
// in cv.
func ValidateYAMLConfig(cv *ConfigValidator, in io.Reader) error {
	if cv == nil {
		return errors.New("config validator cannot be nil")
	}
	inBytes, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	err = strictyaml.Unmarshal(inBytes, cv.Config)
	if err != nil {
		return err
	}
	return ValidateConfig(cv.Config, cv.Validators)
}

// ValidateConfig checks c against the validate tags of its struct. Field
// names in the resulting errors are the YAML key names.
func ValidateConfig(c any, validators map[string]validator.Func) error {
	validate := validator.New()
	for tag, v := range validators {
		err := validate.RegisterValidation(tag, v)
		if err != nil {
			return err
		}
	}
	validate.RegisterCustomTypeFunc(config.DurationCustomTypeFunc, config.Duration{})
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return validate.Struct(c)
}
