package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/letsencrypt/validator/v10"

	"github.com/letsencrypt/certval/config"
	blog "github.com/letsencrypt/certval/log"
	"github.com/letsencrypt/certval/test"
)

type testConfig struct {
	Name     string          `yaml:"name" validate:"required,certvalname"`
	Interval config.Duration `yaml:"interval" validate:"required"`
	Syslog   SyslogConfig    `yaml:"syslog"`
}

var nameValidator = map[string]validator.Func{
	"certvalname": func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), "certval")
	},
}

func TestValidateYAMLConfig(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"valid", "name: certval-a\ninterval: 3s\n", ""},
		{"custom validator", "name: other\ninterval: 3s\n", "certvalname"},
		{"missing required", "name: certval-a\n", "interval"},
		{"unknown field", "name: certval-a\ninterval: 3s\nextra: 1\n", "extra"},
		{"syslog level out of range", "name: certval-a\ninterval: 3s\nsyslog:\n  stdoutLevel: 9\n", "stdoutLevel"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cv := &ConfigValidator{Config: &testConfig{}, Validators: nameValidator}
			err := ValidateYAMLConfig(cv, strings.NewReader(tc.yaml))
			if tc.wantErr == "" {
				test.AssertNotError(t, err, "validating config")
				test.AssertEquals(t, cv.Config.(*testConfig).Interval.Duration, 3*time.Second)
				return
			}
			test.AssertError(t, err, "config should not validate")
			test.AssertContains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateYAMLConfigNil(t *testing.T) {
	err := ValidateYAMLConfig(nil, strings.NewReader(""))
	test.AssertError(t, err, "nil validator should fail")
}

func TestReadConfigFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(filename, []byte("name: certval-a\ninterval: 1m\n"), 0600)
	test.AssertNotError(t, err, "writing config")

	var c testConfig
	err = ReadConfigFile(filename, &c)
	test.AssertNotError(t, err, "reading config")
	test.AssertEquals(t, c.Name, "certval-a")
	test.AssertEquals(t, c.Interval.Duration, time.Minute)

	err = ReadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), &c)
	test.AssertError(t, err, "missing file should fail")
}

func TestClock(t *testing.T) {
	t.Setenv("FAKECLOCK", "2020-01-02T03:04:05Z")
	clk := Clock()
	_, fake := clk.(clock.FakeClock)
	test.Assert(t, fake, "FAKECLOCK should produce a fake clock")
	test.AssertEquals(t, clk.Now(), time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))

	t.Setenv("FAKECLOCK", "")
	_, fake = Clock().(clock.FakeClock)
	test.Assert(t, !fake, "without FAKECLOCK the clock should be real")
}

func TestNewStatsRegistry(t *testing.T) {
	stats := newStatsRegistry("", blog.NewMock())
	test.AssertNotNil(t, stats, "registry should not be nil")
}
