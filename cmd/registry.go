package cmd

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/letsencrypt/validator/v10"
)

// ConfigValidator pairs a pointer to a command's config struct with any
// custom validation tags the struct uses.
type ConfigValidator struct {
	Config     any
	Validators map[string]validator.Func
}

// Command is a subcommand of the certval binary.
type Command struct {
	Name string
	// Summary is one line shown by --list.
	Summary string
	Run     func()
	// Config is optional. When set, the file given with -config is validated
	// against it before Run is called.
	Config *ConfigValidator
}

var registry struct {
	sync.Mutex
	commands map[string]Command
}

// RegisterCommand registers a subcommand. It panics if the name is taken.
func RegisterCommand(c Command) {
	registry.Lock()
	defer registry.Unlock()

	if registry.commands == nil {
		registry.commands = make(map[string]Command)
	}
	if _, ok := registry.commands[c.Name]; ok {
		panic(fmt.Sprintf("command %q was registered twice", c.Name))
	}
	registry.commands[c.Name] = c
}

// LookupCommand returns the named subcommand.
func LookupCommand(name string) (Command, bool) {
	registry.Lock()
	defer registry.Unlock()
	c, ok := registry.commands[name]
	return c, ok
}

// AvailableCommands returns the registered subcommands sorted by name.
func AvailableCommands() []Command {
	registry.Lock()
	defer registry.Unlock()
	avail := make([]Command, 0, len(registry.commands))
	for _, c := range registry.commands {
		avail = append(avail, c)
	}
	sort.Slice(avail, func(i, j int) bool { return avail[i].Name < avail[j].Name })
	return avail
}

// NewConfigValidator returns a ConfigValidator holding a fresh zero value of
// the command's config struct, so that a config can be validated more than
// once without sharing state. It returns nil when the command registered no
// config.
func (c Command) NewConfigValidator() *ConfigValidator {
	if c.Config == nil {
		return nil
	}
	fresh := reflect.New(reflect.ValueOf(c.Config.Config).Elem().Type()).Interface()
	return &ConfigValidator{
		Config:     fresh,
		Validators: c.Config.Validators,
	}
}
