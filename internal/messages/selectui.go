package messages

// Select messages for interactive prompts.
const (
	SelectRequiresTerminal = "interactive selection requires an interactive terminal"
	SelectBack             = "selection left"
	SelectCancelled        = "selection cancelled"
	SelectMarkHelp         = "space toggles • / filters • enter confirms"
)
