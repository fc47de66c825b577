package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/letsencrypt/certval/config"
)

// PasswordConfig either contains a password or the path to a file
// containing a password
type PasswordConfig struct {
	Password     string `yaml:"password" validate:"excluded_with=PasswordFile"`
	PasswordFile string `yaml:"passwordFile" validate:"excluded_with=Password"`
}

// Pass returns a password, either directly from the configuration
// struct or by reading from a specified file
func (pc *PasswordConfig) Pass() (string, error) {
	if pc.PasswordFile != "" {
		contents, err := os.ReadFile(pc.PasswordFile)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(contents), "\n"), nil
	}
	return pc.Password, nil
}

// SyslogConfig defines the config for syslogging.
// 3 means "error", 4 means "warning", 6 is "info" and 7 is "debug".
// Configuring a given level causes all messages at that level and below to
// be logged.
type SyslogConfig struct {
	// When absent or zero, this causes no logs to be emitted on stdout/stderr.
	// Errors and warnings will be emitted on stderr if the configured level
	// allows.
	StdoutLevel int `yaml:"stdoutLevel" validate:"min=-1,max=7"`
	// When absent or zero, this defaults to logging all messages of level 6
	// or below. To disable syslog logging entirely, set this to -1.
	SyslogLevel int `yaml:"syslogLevel" validate:"min=-1,max=7"`
}

// ServiceConfig describes how to reach the remote validation service on
// behalf of one application.
type ServiceConfig struct {
	// Endpoint is the scheme, host and optional port of the service.
	Endpoint string `yaml:"endpoint" validate:"required,url"`
	// Application is the identity claimed towards the service.
	Application string `yaml:"application" validate:"required"`

	// Username, when set, is sent with the password as a WS-Security
	// UsernameToken.
	Username       string `yaml:"username"`
	PasswordConfig `yaml:",inline"`
	// CredentialFile is a PEM file holding a client certificate and its key.
	CredentialFile string `yaml:"credentialFile"`

	// Timeout overrides the per-call timeout. Only test deployments should
	// need it.
	Timeout config.Duration `yaml:"timeout" validate:"omitempty,min=1ms"`
}

func (sc *ServiceConfig) String() string {
	return fmt.Sprintf("%s as %s", sc.Endpoint, sc.Application)
}
