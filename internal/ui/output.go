package ui

import "fmt"

// Title prints a command header.
func Title(text string) {
	fmt.Println(TitleStyle.Render(text))
}

func Success(text string) {
	fmt.Println(SuccessStyle.Render("✓ " + text))
}

func Warning(text string) {
	fmt.Println(WarningStyle.Render("! " + text))
}

// Dim prints secondary text, indented.
func Dim(text string) {
	fmt.Println(DimStyle.Render("  " + text))
}

// Command prints a CLI invocation the user can copy.
func Command(text string) {
	fmt.Println(CommandStyle.Render(text))
}

// Box prints text inside a rounded border.
func Box(text string) {
	fmt.Println(BoxStyle.Render(text))
}

func Line() {
	fmt.Println()
}

// FormatBytes formats a size for tables, e.g. "1.5 KB".
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
