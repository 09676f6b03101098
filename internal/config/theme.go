package config

const (
	// DefaultSyntaxTheme styles code blocks in rendered Markdown answers.
	DefaultSyntaxTheme = "gruvbox"
	// TerminalSyntaxTheme styles markup printed by the CLI.
	TerminalSyntaxTheme = "monokai"
)
