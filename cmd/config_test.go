package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/letsencrypt/certval/config"
	"github.com/letsencrypt/certval/test"
)

func TestPasswordConfig(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "password")
	err := os.WriteFile(filename, []byte("hunter2\n\n"), 0600)
	test.AssertNotError(t, err, "writing password file")

	tests := []struct {
		description string
		conf        PasswordConfig
		expected    string
	}{
		{"inline password", PasswordConfig{Password: "secret"}, "secret"},
		{"password file with trailing newlines", PasswordConfig{PasswordFile: filename}, "hunter2"},
		{"no password", PasswordConfig{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			pass, err := tc.conf.Pass()
			test.AssertNotError(t, err, "reading password")
			test.AssertEquals(t, pass, tc.expected)
		})
	}

	_, err = (&PasswordConfig{PasswordFile: filepath.Join(dir, "missing")}).Pass()
	test.AssertError(t, err, "missing password file should fail")
}

func TestServiceConfigString(t *testing.T) {
	sc := ServiceConfig{
		Endpoint:       "https://afirma.example.org",
		Application:    "certval.test",
		PasswordConfig: PasswordConfig{Password: "secret"},
	}
	test.AssertEquals(t, sc.String(), "https://afirma.example.org as certval.test")
	test.AssertNotContains(t, sc.String(), "secret")
}

func TestValidateServiceConfig(t *testing.T) {
	valid := ServiceConfig{
		Endpoint:    "https://afirma.example.org",
		Application: "certval.test",
		Timeout:     config.Duration{Duration: 5 * time.Second},
	}
	test.AssertNotError(t, ValidateConfig(&valid, nil), "valid config")

	tooShort := valid
	tooShort.Timeout = config.Duration{Duration: time.Microsecond}
	test.AssertError(t, ValidateConfig(&tooShort, nil), "sub-millisecond timeout should fail")

	noApp := valid
	noApp.Application = ""
	err := ValidateConfig(&noApp, nil)
	test.AssertError(t, err, "missing application should fail")
	test.AssertContains(t, err.Error(), "application")
}
