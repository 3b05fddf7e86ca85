package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/tileview/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, cached frames
	colorYellow = lipgloss.Color("220") // warnings, skipped tiles
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // links, commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // muted
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// out is where status lines go. Tests swap it for a buffer.
var out io.Writer = os.Stdout

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(out, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(out, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(out, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(out, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented muted line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(out, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(out, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(out)
}

// =============================================================================
// Conversion Summary
// =============================================================================

// printFrames prints one line per converted frame: its documents, tile
// count and whether it came from the cache.
func printFrames(frames []pipeline.FrameResult) {
	for _, f := range frames {
		parts := []string{
			fmt.Sprintf("%d tiles", f.Tiles),
			fmt.Sprintf("max slice %d", f.MaxSlice),
		}
		if f.Skipped > 0 {
			parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d skipped", f.Skipped)))
		}
		if f.Cached {
			parts = append(parts, styleCached.Render("cached"))
		} else {
			parts = append(parts, styleComputed.Render("fresh"))
		}
		fmt.Fprintf(out, "  %s %s %s\n",
			StyleDim.Render(iconArrow),
			StyleValue.Render(f.SVG),
			StyleDim.Render(strings.Join(parts, " · ")))
	}
}

// printSummary prints the totals of a conversion run.
func printSummary(res *pipeline.Result) {
	printKeyValue("Frames", StyleNumber.Render(fmt.Sprint(res.Stats.FrameCount)))
	printKeyValue("Tiles", StyleNumber.Render(fmt.Sprint(res.Stats.TileCount)))
	printKeyValue("Max slice", StyleNumber.Render(fmt.Sprint(res.MaxSlice)))
	printKeyValue("Cache", fmt.Sprintf("%d hits, %d misses", res.CacheInfo.Hits, res.CacheInfo.Misses))
	if res.Stats.Skipped > 0 {
		printWarning("%d tiles could not be projected and were skipped", res.Stats.Skipped)
	}
}
