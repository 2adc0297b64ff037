package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName       = "bool"
	toggleAcceptedLiterals   = "true, false, yes, no, on, off, 1, 0"
	toggleInvalidValueFormat = "invalid value %q for --%s; accepted values: %s"
)

// toggleLiterals maps the spellings accepted by toggle flags such as --wait and --copy.
var toggleLiterals = map[string]bool{
	"true": true, "t": true, "1": true, "yes": true, "y": true, "on": true,
	"false": false, "f": false, "0": false, "no": false, "n": false, "off": false,
}

func parseToggleLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, known := toggleLiterals[normalized]
	return parsed, known
}

// toggleValue is a pflag.Value that reports the bool type so cobra help renders it
// like a native boolean while accepting the wider literal set.
type toggleValue struct {
	name   string
	target *bool
}

func (value *toggleValue) Set(input string) error {
	parsed, known := parseToggleLiteral(input)
	if !known {
		return fmt.Errorf(toggleInvalidValueFormat, input, value.name, toggleAcceptedLiterals)
	}
	*value.target = parsed
	return nil
}

func (value *toggleValue) String() string {
	if value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleValue) Type() string {
	return toggleFlagTypeName
}

// registerToggleFlag binds target to a flag that may be given bare, with =value or with a separate literal.
func registerToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&toggleValue{name: name, target: target}, name, usage)
	flag := flagSet.Lookup(name)
	flag.DefValue = strconv.FormatBool(defaultValue)
	flag.NoOptDefVal = strconv.FormatBool(true)
}

// joinToggleArguments rewrites "--wait no" into "--wait=no" for every toggle flag in the command tree.
// pflag would otherwise treat the literal as a positional argument.
func joinToggleArguments(command *cobra.Command, arguments []string) []string {
	toggles := map[string]struct{}{}
	collectToggleNames(command, toggles)
	if len(toggles) == 0 {
		return arguments
	}
	joined := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == "--" {
			joined = append(joined, arguments[index:]...)
			break
		}
		name, isLongFlag := strings.CutPrefix(argument, "--")
		_, isToggle := toggles[name]
		if isLongFlag && isToggle && index+1 < len(arguments) {
			next := arguments[index+1]
			if _, known := parseToggleLiteral(next); known && next != "" && !strings.HasPrefix(next, "-") {
				joined = append(joined, "--"+name+"="+next)
				index++
				continue
			}
		}
		joined = append(joined, argument)
	}
	return joined
}

func collectToggleNames(command *cobra.Command, names map[string]struct{}) {
	record := func(flag *pflag.Flag) {
		if flag.Value.Type() == toggleFlagTypeName {
			names[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(record)
	command.Flags().VisitAll(record)
	for _, child := range command.Commands() {
		collectToggleNames(child, names)
	}
}
