package notmain

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/letsencrypt/certval/cmd"
	"github.com/letsencrypt/certval/core"
	"github.com/letsencrypt/certval/metrics"
	"github.com/letsencrypt/certval/transport"
	"github.com/letsencrypt/certval/validator"
	"github.com/letsencrypt/certval/xmlcodec"
)

// Config is the YAML config of the validate and get-data subcommands.
type Config struct {
	Certval cmd.ServiceConfig `yaml:"certval"`

	Syslog        cmd.SyslogConfig        `yaml:"syslog"`
	OpenTelemetry cmd.OpenTelemetryConfig `yaml:"openTelemetry"`
}

// connectionParams builds the transport parameters for c, with password
// already resolved.
func (c *Config) connectionParams(password string) transport.ConnectionParams {
	conn := transport.NewConnectionParams(c.Certval.Endpoint, c.Certval.Application)
	conn.Username = c.Certval.Username
	conn.Password = password
	conn.CredentialFile = c.Certval.CredentialFile
	if c.Certval.Timeout.Duration > 0 {
		conn.Timeout = c.Certval.Timeout.Duration
	}
	return conn
}

// readPassword prompts on out and reads a password from the terminal in.
func readPassword(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("-ask-password needs a terminal on stdin")
	}
	fmt.Fprint(out, "Validation service password: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

// run is shared by both subcommands; getData selects the operation.
func run(getData bool) {
	configFile := flag.String("config", "", "File path to the configuration file for this service")
	certFile := flag.String("cert", "", "Path to the PEM or DER certificate to check")
	askPassword := flag.Bool("ask-password", false, "Read the service password from the terminal instead of the config")
	flag.Parse()
	if *configFile == "" || *certFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	var c Config
	err := cmd.ReadConfigFile(*configFile, &c)
	cmd.FailOnError(err, "Reading config file")

	logger := cmd.NewLogger(c.Syslog)
	defer logger.AuditPanic()
	shutdown := cmd.NewOpenTelemetry(c.OpenTelemetry, logger)
	defer shutdown(context.Background())

	password, err := c.Certval.Pass()
	cmd.FailOnError(err, "Reading service password")
	if *askPassword {
		password, err = readPassword(os.Stdin, os.Stderr)
		cmd.FailOnError(err, "Reading service password")
	}

	clk := cmd.Clock()
	v, err := validator.New(
		validator.Config{
			Application: c.Certval.Application,
			Connection:  c.connectionParams(password),
		},
		xmlcodec.New(xmlcodec.DSS()),
		transport.New(clk, metrics.NoopRegisterer, logger),
		metrics.NoopRegisterer,
		logger)
	cmd.FailOnError(err, "Creating validator")

	cert, err := core.LoadCert(*certFile)
	cmd.FailOnError(err, "Loading certificate")

	logger.Infof("Checking %s with %s", *certFile, c.Certval.String())
	var out any
	if getData {
		out, err = v.GetData(context.Background(), cert, nil)
	} else {
		out, err = v.Validate(context.Background(), cert, nil)
	}
	cmd.FailOnError(err, "Calling validation service")

	err = printJSON(os.Stdout, out)
	cmd.FailOnError(err, "Writing result")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validateMain() { run(false) }

func getDataMain() { run(true) }

func init() {
	cmd.RegisterCommand(cmd.Command{
		Name:    "validate",
		Summary: "Validate a certificate and print the result as JSON",
		Run:     validateMain,
		Config:  &cmd.ConfigValidator{Config: &Config{}},
	})
	cmd.RegisterCommand(cmd.Command{
		Name:    "get-data",
		Summary: "Print the readable fields of a certificate as JSON",
		Run:     getDataMain,
		Config:  &cmd.ConfigValidator{Config: &Config{}},
	})
}
