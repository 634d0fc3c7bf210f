// Package cli parses rehearse command lines.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandServe     Command = "serve"
	CommandStart     Command = "start"
	CommandAnswer    Command = "answer"
	CommandNext      Command = "next"
	CommandEnd       Command = "end"
	CommandListen    Command = "listen"
	CommandStatus    Command = "status"
	CommandSummary   Command = "summary"
	CommandExport    Command = "export"
	CommandRestart   Command = "restart"
	CommandLanguages Command = "languages"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

// Export formats.
const (
	FormatText = "txt"
	FormatXLSX = "xlsx"
)

var validCommands = map[Command]struct{}{
	CommandServe:     {},
	CommandStart:     {},
	CommandAnswer:    {},
	CommandNext:      {},
	CommandEnd:       {},
	CommandListen:    {},
	CommandStatus:    {},
	CommandSummary:   {},
	CommandExport:    {},
	CommandRestart:   {},
	CommandLanguages: {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool

	// start
	Mode     string
	Topic    string
	Language string

	// answer
	Text string

	// export
	Format string
	Out    string

	// restart
	Yes bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if err := parseCommandArgs(&parsed, args[i+1:]); err != nil {
				return Parsed{}, err
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

// parseCommandArgs consumes flags and positional arguments that follow cmd.
func parseCommandArgs(parsed *Parsed, rest []string) error {
	switch parsed.Command {
	case CommandStart:
		return parseStart(parsed, rest)
	case CommandAnswer:
		text := strings.TrimSpace(strings.Join(rest, " "))
		if text == "" {
			return errors.New("answer requires text")
		}
		parsed.Text = text
		return nil
	case CommandExport:
		return parseExport(parsed, rest)
	case CommandRestart:
		for _, arg := range rest {
			if arg != "--yes" && arg != "-y" {
				return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}
			parsed.Yes = true
		}
		return nil
	default:
		if len(rest) > 0 {
			return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		return nil
	}
}

func parseStart(parsed *Parsed, rest []string) error {
	var topic []string
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch arg {
		case "--mode", "--topic", "--lang":
			i++
			if i >= len(rest) {
				return fmt.Errorf("%s requires a value", arg)
			}
			value := rest[i]
			switch arg {
			case "--mode":
				parsed.Mode = value
			case "--topic":
				parsed.Topic = value
			case "--lang":
				parsed.Language = value
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return fmt.Errorf("unknown flag: %s", arg)
			}
			topic = append(topic, arg)
		}
	}

	if parsed.Topic == "" {
		parsed.Topic = strings.Join(topic, " ")
	} else if len(topic) > 0 {
		return errors.New("topic given both as --topic and as arguments")
	}
	if strings.TrimSpace(parsed.Mode) == "" {
		return errors.New("start requires --mode quiz|interview|conversation")
	}
	if strings.TrimSpace(parsed.Topic) == "" {
		return errors.New("start requires --topic TEXT")
	}
	return nil
}

func parseExport(parsed *Parsed, rest []string) error {
	parsed.Format = FormatText
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch arg {
		case "--format", "--out":
			i++
			if i >= len(rest) {
				return fmt.Errorf("%s requires a value", arg)
			}
			if arg == "--format" {
				parsed.Format = strings.ToLower(rest[i])
			} else {
				parsed.Out = rest[i]
			}
		default:
			return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
	}
	if parsed.Format != FormatText && parsed.Format != FormatXLSX {
		return fmt.Errorf("unsupported export format %q (want %s or %s)", parsed.Format, FormatText, FormatXLSX)
	}
	return nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [flags] [args]

Commands:
  serve       Run the session owner in the foreground
  start       Start a session: --mode quiz|interview|conversation --topic TEXT [--lang CODE]
  answer      Submit an answer (quiz: 1-4 or A-D)
  next        Advance to the next question, or finish
  end         End a conversational interview
  listen      Toggle dictation; the second call submits the transcript
  status      Print state and the current question
  summary     Print the session summary
  export      Export the session: [--format txt|xlsx] [--out PATH]
  restart     Discard the current session (--yes to skip confirmation)
  languages   List supported practice languages
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/rehearse/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
