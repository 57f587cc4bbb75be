package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// formatter applies semantic formatting to text.
type formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

func (f formatter) Sprintf(format string, a ...any) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

// noColor reports whether color output is disabled by NO_COLOR, --no-color
// or a non-terminal output.
func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return color.NoColor
}

var (
	successText = formatter{color.New(color.FgGreen), "", ""}
	errorText   = formatter{color.New(color.FgRed), "", ""}
	warningText = formatter{color.New(color.FgYellow), "", ""}
	infoText    = formatter{color.New(color.FgCyan), "", ""}
	codeText    = formatter{color.New(color.FgYellow), "`", "`"}
	mutedText   = formatter{color.New(color.FgHiBlack), "(", ")"}
)
