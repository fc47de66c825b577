package cmd

import (
	"testing"

	"github.com/letsencrypt/certval/test"
)

func TestRegisterCommand(t *testing.T) {
	ran := false
	RegisterCommand(Command{
		Name:    "registry-test",
		Summary: "Used by TestRegisterCommand",
		Run:     func() { ran = true },
		Config:  &ConfigValidator{Config: &testConfig{}, Validators: nameValidator},
	})

	c, ok := LookupCommand("registry-test")
	test.Assert(t, ok, "registered command should be found")
	c.Run()
	test.Assert(t, ran, "Run should be the registered func")

	_, ok = LookupCommand("never-registered")
	test.Assert(t, !ok, "unknown command should not be found")

	found := false
	for _, avail := range AvailableCommands() {
		if avail.Name == "registry-test" {
			found = true
		}
	}
	test.Assert(t, found, "registered command should be listed")

	defer func() {
		test.AssertNotNil(t, recover(), "registering a name twice should panic")
	}()
	RegisterCommand(Command{Name: "registry-test"})
}

func TestNewConfigValidator(t *testing.T) {
	c := Command{
		Name:   "fresh",
		Config: &ConfigValidator{Config: &testConfig{Name: "certval-stale"}, Validators: nameValidator},
	}
	cv := c.NewConfigValidator()
	test.AssertNotNil(t, cv, "config validator should not be nil")
	test.AssertEquals(t, cv.Config.(*testConfig).Name, "")
	test.AssertEquals(t, len(cv.Validators), 1)

	other := c.NewConfigValidator()
	test.Assert(t, other.Config != cv.Config, "each validator should get its own config")

	test.Assert(t, Command{Name: "bare"}.NewConfigValidator() == nil, "no config means no validator")
}
