package tui

// Color constants for the tomate TUI theme
const (
	// Base Colors
	ColorCardBackground = "#2A1414" // Dark tomato
	ColorBorder         = "#4A3B3B" // Warm grey

	// Text Colors
	ColorPrimaryText   = "#F2E8E6" // Field labels, user input, titles
	ColorSecondaryText = "#C4B2AE" // Secondary text, warm grey
	ColorDisabledText  = "#75635F" // Disabled/muted text
	ColorPlaceholder   = "#C4B2AE"
	ColorHelpText      = "240" // Dark grey for help text

	// Accent Colors (tomato theme)
	ColorAccentMain   = "#E5484D" // Logo, work sessions, active borders
	ColorAccentBright = "#FF8A80" // Highlights, current step
	ColorLeaf         = "#46A758" // Breaks, the tomato leaf

	// State Colors
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
)
