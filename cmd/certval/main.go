package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/letsencrypt/certval/cmd"
	_ "github.com/letsencrypt/certval/cmd/log-validator"
	_ "github.com/letsencrypt/certval/cmd/validate"
	"github.com/letsencrypt/certval/core"
)

// readAndValidateConfigFile uses the ConfigValidator registered for the given
// command to validate the provided config file. If the command does not have
// a registered ConfigValidator, this function does nothing.
func readAndValidateConfigFile(name, filename string) error {
	c, ok := cmd.LookupCommand(name)
	if !ok {
		return nil
	}
	cv := c.NewConfigValidator()
	if cv == nil {
		return nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return cmd.ValidateYAMLConfig(cv, file)
}

// getConfigPath returns the path to the config file if it was provided as a
// command line flag. If the flag was not provided, it returns an empty string.
func getConfigPath(args []string) string {
	for i, arg := range args {
		if arg == "--config" || arg == "-config" {
			if i+1 < len(args) {
				return args[i+1]
			}
		}
		for _, prefix := range []string{"--config=", "-config="} {
			if strings.HasPrefix(arg, prefix) {
				return strings.TrimPrefix(arg, prefix)
			}
		}
	}
	return ""
}

var certvalUsage = fmt.Sprintf(`Usage: %s <subcommand> [flags]

  Use --list to see the available subcommands. Use <subcommand> --help
  to see the usage for a specific subcommand.
`,
	core.Command())

func main() {
	defer cmd.AuditPanic()
	var command string
	if core.Command() == "certval" {
		if len(os.Args) <= 1 || os.Args[1] == "--help" || os.Args[1] == "-help" {
			fmt.Fprint(os.Stderr, certvalUsage)
			return
		}

		if os.Args[1] == "--list" || os.Args[1] == "-list" {
			for _, c := range cmd.AvailableCommands() {
				fmt.Printf("%-15s %s\n", c.Name, c.Summary)
			}
			return
		}
		command = os.Args[1]

		// Remove the subcommand from the arguments.
		os.Args = os.Args[1:]
	} else {
		// Operator ran a subcommand through a symlink.
		command = core.Command()
	}

	config := getConfigPath(os.Args)
	if config != "" {
		err := readAndValidateConfigFile(command, config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error validating config file %q for command %q: %s\n", config, command, err)
			os.Exit(1)
		}
	}

	c, ok := cmd.LookupCommand(command)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown subcommand %q.\n", command)
		os.Exit(1)
	}
	c.Run()
}
