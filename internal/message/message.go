// internal/message/message.go
package message

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/praetorian-inc/rolecall/version"
)

var (
	quiet     bool
	noColor   bool
	silent    bool
	mutex     sync.RWMutex
	outWriter io.Writer = os.Stdout

	// Color definitions
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	findingColor = color.New(color.FgHiRed, color.Bold)
	bannerColor  = color.New(color.FgHiBlue, color.Bold)
	sectionColor = color.New(color.FgHiBlue, color.Bold)
)

const asciiBanner = `
▗▄▄▖  ▗▄▖ ▗▖   ▗▄▄▄▖ ▗▄▄▖ ▗▄▖ ▗▖   ▗▖
▐▌ ▐▌▐▌ ▐▌▐▌   ▐▌   ▐▌   ▐▌ ▐▌▐▌   ▐▌
▐▛▀▚▖▐▌ ▐▌▐▌   ▐▛▀▀▘▐▌   ▐▛▀▜▌▐▌   ▐▌
▐▌ ▐▌▝▚▄▞▘▐▙▄▄▖▐▙▄▄▖▝▚▄▄▖▐▌ ▐▌▐▙▄▄▖▐▙▄▄▖
`

func init() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// SetQuiet enables/disables user messages
func SetQuiet(q bool) {
	mutex.Lock()
	defer mutex.Unlock()
	quiet = q
}

// SetNoColor enables/disables colored output
func SetNoColor(nc bool) {
	mutex.Lock()
	defer mutex.Unlock()
	noColor = nc
	color.NoColor = nc // This affects the color package globally
}

// SetSilent enables/disables all messages
func SetSilent(s bool) {
	mutex.Lock()
	defer mutex.Unlock()
	silent = s
}

// SetOutput changes the output writer (useful for testing)
func SetOutput(w io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	outWriter = w
}

func printf(c *color.Color, prefix, format string, args ...interface{}) {
	mutex.RLock()
	defer mutex.RUnlock()

	msg := fmt.Sprintf(format, args...)
	if noColor {
		fmt.Fprintf(outWriter, "%s%s\n", prefix, msg)
	} else {
		c.Fprintf(outWriter, "%s%s\n", prefix, msg)
	}
}

// Info prints an informational message unless quiet/silent mode is enabled
func Info(format string, args ...interface{}) {
	if quiet || silent {
		return
	}
	printf(infoColor, "[*] ", format, args...)
}

// Success prints a success message unless quiet/silent mode is enabled
func Success(format string, args ...interface{}) {
	if quiet || silent {
		return
	}
	printf(successColor, "[+] ", format, args...)
}

// Warning prints a warning message unless silent mode is enabled
func Warning(format string, args ...interface{}) {
	if silent {
		return
	}
	printf(warningColor, "[!] ", format, args...)
}

// Error prints an error message unless silent mode is enabled
func Error(format string, args ...interface{}) {
	if silent {
		return
	}
	printf(errorColor, "[-] ", format, args...)
}

// Finding prints a security finding unless silent mode is enabled
func Finding(format string, args ...interface{}) {
	if silent {
		return
	}
	printf(findingColor, "[!!] ", format, args...)
}

// Section prints a section heading unless quiet/silent mode is enabled
func Section(title string) {
	if quiet || silent {
		return
	}
	printf(sectionColor, "", "\n=== %s ===", title)
}

// Banner prints the ASCII banner with the current version
func Banner() {
	if quiet || silent {
		return
	}
	mutex.RLock()
	defer mutex.RUnlock()
	if noColor {
		fmt.Fprintf(outWriter, "%s\n", asciiBanner)
	} else {
		bannerColor.Fprintf(outWriter, "%s\n", asciiBanner)
	}
	fmt.Fprintf(outWriter, "  %s\n\n", version.FullVersion())
}
