package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
)

const (
	// FallbackAuto picks an installed clipboard utility, then OSC52 when the output is a terminal.
	// OSC52 cannot observe whether the terminal honored the sequence, so it never reports "Copy failed".
	FallbackAuto = "auto"
	// FallbackCommand selects the external clipboard utilities.
	FallbackCommand = "command"
	// FallbackOSC52 selects the terminal OSC52 escape sequence.
	FallbackOSC52 = "osc52"
	// FallbackNone disables the legacy path.
	FallbackNone = "none"

	commandMechanismName = "copy-command"
	osc52MechanismName   = "osc52"
)

// LegacyCommand copies whatever is currently selected on a surface.
// It returns false when the command ran but did not copy, and an error when it cannot run.
type LegacyCommand interface {
	Name() string
	Execute(ctx context.Context, selection io.Reader) (bool, error)
}

// NewLegacyCommand returns the fallback registered under name; FallbackNone yields nil.
func NewLegacyCommand(name string, terminal *os.File) (LegacyCommand, error) {
	switch name {
	case "", FallbackAuto:
		if terminal != nil && IsTerminal(terminal) {
			return autoLegacyCommand(NewCopyCommand(), terminal), nil
		}
		return NewCopyCommand(), nil
	case FallbackCommand:
		return NewCopyCommand(), nil
	case FallbackOSC52:
		if terminal == nil {
			terminal = os.Stdout
		}
		return NewOSC52Command(terminal), nil
	case FallbackNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported clipboard fallback %q", name)
	}
}

// autoLegacyCommand prefers the utility-backed command, whose exit status is observable,
// and uses OSC52 only when no utility is installed.
func autoLegacyCommand(command *CopyCommand, terminal io.Writer) LegacyCommand {
	if command.hasUtility() {
		return command
	}
	return NewOSC52Command(terminal)
}

// IsTerminal reports whether file is attached to a terminal.
func IsTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// CommandCandidate is an external utility that reads clipboard text from stdin.
type CommandCandidate struct {
	Program   string
	Arguments []string
}

// DefaultCommandCandidates lists clipboard utilities in preference order for goos.
func DefaultCommandCandidates(goos string) []CommandCandidate {
	candidates := []CommandCandidate{
		{Program: "pbcopy"},
		{Program: "wl-copy"},
		{Program: "xclip", Arguments: []string{"-selection", "clipboard"}},
		{Program: "xsel", Arguments: []string{"--clipboard", "--input"}},
	}
	if goos == "windows" {
		candidates = append([]CommandCandidate{{Program: "clip"}}, candidates...)
	}
	return candidates
}

// CopyCommand pipes the selection into the first installed clipboard utility.
type CopyCommand struct {
	Candidates []CommandCandidate
	LookPath   func(string) (string, error)
}

// NewCopyCommand constructs a CopyCommand with the platform defaults.
func NewCopyCommand() *CopyCommand {
	return &CopyCommand{Candidates: DefaultCommandCandidates(runtime.GOOS), LookPath: exec.LookPath}
}

// Name identifies the mechanism.
func (command *CopyCommand) Name() string {
	return commandMechanismName
}

func (command *CopyCommand) hasUtility() bool {
	lookPath := command.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, candidate := range command.Candidates {
		if _, err := lookPath(candidate.Program); err == nil {
			return true
		}
	}
	return false
}

// Execute runs the first available utility with the selection on stdin.
func (command *CopyCommand) Execute(ctx context.Context, selection io.Reader) (bool, error) {
	lookPath := command.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, candidate := range command.Candidates {
		programPath, lookErr := lookPath(candidate.Program)
		if lookErr != nil {
			continue
		}
		// #nosec G204
		process := exec.CommandContext(ctx, programPath, candidate.Arguments...)
		process.Stdin = selection
		if runErr := process.Run(); runErr != nil {
			var exitError *exec.ExitError
			if errors.As(runErr, &exitError) {
				return false, nil
			}
			return false, NewCopyError(KindLegacyCommandUnsupported, fmt.Sprintf("run %s", candidate.Program), runErr)
		}
		return true, nil
	}
	return false, NewCopyError(KindLegacyCommandUnsupported, "no clipboard utility found (install xclip, xsel or wl-copy)", nil)
}

// OSC52Command asks the terminal emulator to set the clipboard.
type OSC52Command struct {
	output io.Writer
}

// NewOSC52Command writes OSC52 sequences to output.
func NewOSC52Command(output io.Writer) *OSC52Command {
	return &OSC52Command{output: output}
}

// Name identifies the mechanism.
func (command *OSC52Command) Name() string {
	return osc52MechanismName
}

// Execute emits the selection as an OSC52 clipboard sequence.
func (command *OSC52Command) Execute(ctx context.Context, selection io.Reader) (bool, error) {
	if command.output == nil {
		return false, NewCopyError(KindLegacyCommandUnsupported, "no terminal output for OSC52", nil)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	content, readErr := io.ReadAll(selection)
	if readErr != nil {
		return false, NewCopyError(KindLegacyCommandUnsupported, "read selection", readErr)
	}
	written, writeErr := osc52.New(string(content)).WriteTo(command.output)
	if writeErr != nil {
		return false, nil
	}
	return written > 0, nil
}
