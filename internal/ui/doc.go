// Package ui styles the CLI's terminal output with lipgloss.
//
// [Palette] holds the named styles. [Progress] renders a [tasks.ProgressUpdate] as one line and
// the Summary helpers render the result of each playlist operation. Styles degrade to plain
// text when the output is not a terminal.
package ui
