// Package cli provides colored terminal output and prompts for the
// non-interactive chats subcommands.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/fatih/color"
)

var (
	titleColor     = color.New(color.FgMagenta, color.Bold) // Bold magenta for titles
	chatTitleColor = color.New(color.FgCyan)                // Cyan for chat titles
	timestampColor = color.New(color.FgHiBlack)             // Dark grey for timestamps
	idColor        = color.New(color.FgYellow)              // Yellow for chat ids
	errorColor     = color.New(color.FgRed)                 // Red for errors
	successColor   = color.New(color.FgGreen)               // Green for confirmations
	separatorColor = color.New(color.FgHiBlack)             // Dark grey for separators

	width = goterm.Width()
)

// Separator printed to cli.
func Separator() {
	separator := strings.Repeat("-", width)
	separatorColor.Println(separator)
}

// Title printed to cli.
func Title(text string, args ...any) {
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := (width - len(title)) / 2
	separator1 := strings.Repeat("-", leftWidth)
	separator2 := strings.Repeat("-", width-len(title)-len(separator1))
	output := fmt.Sprintf("%s%s%s", separator1, title, separator2)
	titleColor.Println(output)
}

// ChatRow prints one chat as an aligned listing row.
func ChatRow(id, title string, createdAt time.Time) {
	idColor.Printf("%-38s", id)
	chatTitleColor.Printf("  %-40s", title)
	timestampColor.Printf("  %s\n", createdAt.Local().Format("2006-01-02 15:04"))
}

// Errorf printed to cli.
func Errorf(text string, args ...any) {
	errorColor.Printf(text, args...)
}

// Successf printed to cli.
func Successf(text string, args ...any) {
	successColor.Printf(text, args...)
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	survey.AskOne(surveyQuestion, &confirm)
	return confirm
}
