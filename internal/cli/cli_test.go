package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/rehearse.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/rehearse.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantHelp bool
		wantPath string
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "help long flag",
			args:     []string{"--help"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "version flag",
			args:     []string{"--version"},
			wantCmd:  CommandVersion,
			wantHelp: false,
		},
		{
			name:    "config after command",
			args:    []string{"status", "--config", "/tmp/cfg"},
			wantErr: "unexpected arguments after command",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "requires a path",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "extra args after command",
			args:    []string{"doctor", "extra"},
			wantErr: "unexpected arguments",
		},
		{
			name:    "start without mode",
			args:    []string{"start", "--topic", "Go"},
			wantErr: "requires --mode",
		},
		{
			name:    "start without topic",
			args:    []string{"start", "--mode", "quiz"},
			wantErr: "requires --topic",
		},
		{
			name:    "start dangling flag",
			args:    []string{"start", "--mode"},
			wantErr: "--mode requires a value",
		},
		{
			name:    "start unknown flag",
			args:    []string{"start", "--mode", "quiz", "--level", "hard"},
			wantErr: "unknown flag: --level",
		},
		{
			name:    "empty answer",
			args:    []string{"answer", "  "},
			wantErr: "answer requires text",
		},
		{
			name:    "bad export format",
			args:    []string{"export", "--format", "pdf"},
			wantErr: "unsupported export format",
		},
		{
			name:    "restart with junk",
			args:    []string{"restart", "now"},
			wantErr: "unexpected arguments",
		},
		{
			name:     "valid next command",
			args:     []string{"next"},
			wantCmd:  CommandNext,
			wantHelp: false,
		},
		{
			name:     "valid listen with config",
			args:     []string{"--config", "/tmp/cfg", "listen"},
			wantCmd:  CommandListen,
			wantHelp: false,
			wantPath: "/tmp/cfg",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
		})
	}
}

func TestParseStartFlags(t *testing.T) {
	parsed, err := Parse([]string{"start", "--mode", "interview", "--topic", "Site reliability", "--lang", "ja-JP"})
	require.NoError(t, err)
	require.Equal(t, CommandStart, parsed.Command)
	require.Equal(t, "interview", parsed.Mode)
	require.Equal(t, "Site reliability", parsed.Topic)
	require.Equal(t, "ja-JP", parsed.Language)
}

func TestParseStartPositionalTopic(t *testing.T) {
	parsed, err := Parse([]string{"start", "--mode", "quiz", "Go", "generics"})
	require.NoError(t, err)
	require.Equal(t, "Go generics", parsed.Topic)

	_, err = Parse([]string{"start", "--mode", "quiz", "--topic", "Go", "extra"})
	require.ErrorContains(t, err, "both")
}

func TestParseAnswerJoinsWords(t *testing.T) {
	parsed, err := Parse([]string{"answer", "I", "led", "the", "migration"})
	require.NoError(t, err)
	require.Equal(t, CommandAnswer, parsed.Command)
	require.Equal(t, "I led the migration", parsed.Text)
}

func TestParseExportDefaultsAndFlags(t *testing.T) {
	parsed, err := Parse([]string{"export"})
	require.NoError(t, err)
	require.Equal(t, FormatText, parsed.Format)
	require.Empty(t, parsed.Out)

	parsed, err = Parse([]string{"export", "--format", "XLSX", "--out", "/tmp/report.xlsx"})
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, parsed.Format)
	require.Equal(t, "/tmp/report.xlsx", parsed.Out)
}

func TestParseRestartConfirmation(t *testing.T) {
	parsed, err := Parse([]string{"restart"})
	require.NoError(t, err)
	require.False(t, parsed.Yes)

	parsed, err = Parse([]string{"restart", "-y"})
	require.NoError(t, err)
	require.True(t, parsed.Yes)
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("rehearse")
	require.Contains(t, text, "serve")
	require.Contains(t, text, "start")
	require.Contains(t, text, "answer")
	require.Contains(t, text, "listen")
	require.Contains(t, text, "export")
	require.Contains(t, text, "doctor")
	require.Contains(t, text, "--config PATH")
}
