package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
	colorCyan   = lipgloss.Color("36")
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleSpin    = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	fmt.Println(styleSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

// printError prints an error message.
func printError(format string, args ...any) {
	fmt.Println(styleError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	fmt.Println(styleWarning.Render(iconWarning) + " " + styleWarning.Render(fmt.Sprintf(format, args...)))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	fmt.Println(styleInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printFile prints a produced-file line.
func printFile(path string) {
	fmt.Println("  " + styleDim.Render(iconArrow) + " " + path)
}

// treeNode is one entry of a rendered report tree. Children nest one level.
type treeNode struct {
	text     string
	children []treeNode
}

// renderTree prints a root line followed by box-drawing branches, the way
// aggregated phase reports are shown to the operator.
func renderTree(root string, nodes []treeNode) string {
	var b strings.Builder
	if root != "" {
		b.WriteString(root)
		b.WriteString("\n")
	}
	writeBranches(&b, nodes, "")
	return strings.TrimRight(b.String(), "\n")
}

func writeBranches(b *strings.Builder, nodes []treeNode, prefix string) {
	for i, n := range nodes {
		connector, childPrefix := "├─ ", prefix+"│  "
		if i == len(nodes)-1 {
			connector, childPrefix = "└─ ", prefix+"   "
		}
		b.WriteString(prefix + styleDim.Render(connector) + n.text + "\n")
		writeBranches(b, n.children, childPrefix)
	}
}
