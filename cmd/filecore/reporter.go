package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"module/internal/ops"
)

// consoleObserver renders progress and halt prompts to the terminal,
// reading the operator's decision from stdin when the performer halts.
type consoleObserver struct {
	performer *ops.Performer
	reader    *bufio.Reader
	done      chan struct{}

	skipAll      bool
	overwriteAll bool
}

func newConsoleObserver() *consoleObserver {
	return &consoleObserver{
		reader: bufio.NewReader(os.Stdin),
		done:   make(chan struct{}),
	}
}

// bind attaches the performer this observer will send decisions back to.
// Must be called before Start, since ops.NewPerformer needs the observer
// before the performer it wraps exists.
func (o *consoleObserver) bind(p *ops.Performer) {
	o.performer = p
}

func (o *consoleObserver) OnProgressChanged(totalPercent float64, filesDone, filesTotal int, filePercent, bytesPerSec, secondsRemaining float64) {
	fmt.Printf("\r[%d/%d] %5.1f%%  %s/s  eta %s   ",
		filesDone, filesTotal, totalPercent,
		formatBytes(bytesPerSec), formatDuration(secondsRemaining))
}

func (o *consoleObserver) OnCurrentFileChanged(path string) {
	// left to the progress line; avoid spamming a line per file.
}

func (o *consoleObserver) OnProcessHalted(reason ops.HaltReason, sourcePath, destPath, errorMessage string) {
	fmt.Println()
	color.New(color.FgYellow, color.Bold).Printf("halted: %s\n", reason)
	fmt.Printf("  source: %s\n", sourcePath)
	fmt.Printf("  dest:   %s\n", destPath)
	if errorMessage != "" {
		fmt.Printf("  detail: %s\n", errorMessage)
	}

	if reason == ops.ReasonTargetAlreadyExists && o.skipAll {
		o.performer.Respond(reason, ops.SkipAll, "")
		return
	}
	if reason == ops.ReasonTargetAlreadyExists && o.overwriteAll {
		o.performer.Respond(reason, ops.OverwriteAll, "")
		return
	}

	for {
		color.New(color.FgCyan).Print("[s]kip [S]kip all [o]verwrite [O]verwrite all [r]ename <name> [t]ry again [c]ancel: ")
		line, _ := o.reader.ReadString('\n')
		line = strings.TrimSpace(line)

		switch {
		case line == "s":
			o.performer.Respond(reason, ops.Skip, "")
			return
		case line == "S":
			o.skipAll = true
			o.performer.Respond(reason, ops.SkipAll, "")
			return
		case line == "o":
			o.performer.Respond(reason, ops.Overwrite, "")
			return
		case line == "O":
			o.overwriteAll = true
			o.performer.Respond(reason, ops.OverwriteAll, "")
			return
		case line == "t":
			o.performer.Respond(reason, ops.Retry, "")
			return
		case line == "c":
			o.performer.Respond(reason, ops.Cancel, "")
			return
		case strings.HasPrefix(line, "r "):
			newName := strings.TrimSpace(strings.TrimPrefix(line, "r "))
			if newName == "" {
				fmt.Println("rename needs a name, e.g. \"r photo (2).jpg\"")
				continue
			}
			o.performer.Respond(reason, ops.Rename, newName)
			return
		default:
			fmt.Println("unrecognized response")
		}
	}
}

func (o *consoleObserver) OnProcessFinished(summary string) {
	fmt.Println()
	switch {
	case strings.HasPrefix(summary, "completed"):
		color.New(color.FgGreen, color.Bold).Println(summary)
	case strings.Contains(summary, "cancelled"):
		color.New(color.FgYellow).Println(summary)
	default:
		color.New(color.FgRed, color.Bold).Println(summary)
	}
	close(o.done)
}

func formatBytes(bytesPerSec float64) string {
	const unit = 1024
	if bytesPerSec < unit {
		return fmt.Sprintf("%.0f B", bytesPerSec)
	}
	div, exp := float64(unit), 0
	for n := bytesPerSec / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", bytesPerSec/div, "KMGTPE"[exp])
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "--"
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

// jsonObserver emits machine-readable JSON lines for scripting/automation,
// auto-resolving conflicts non-interactively (skip, since there is no
// terminal to prompt).
type jsonObserver struct {
	performer *ops.Performer
	encoder   *json.Encoder
	done      chan struct{}
}

func newJSONObserver() *jsonObserver {
	return &jsonObserver{
		encoder: json.NewEncoder(os.Stdout),
		done:    make(chan struct{}),
	}
}

func (o *jsonObserver) bind(p *ops.Performer) {
	o.performer = p
}

func (o *jsonObserver) emit(eventType string, data interface{}) {
	o.encoder.Encode(map[string]interface{}{
		"type":      eventType,
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"data":      data,
	})
}

func (o *jsonObserver) OnProgressChanged(totalPercent float64, filesDone, filesTotal int, filePercent, bytesPerSec, secondsRemaining float64) {
	o.emit("progress", map[string]interface{}{
		"totalPercent":     totalPercent,
		"filesDone":        filesDone,
		"filesTotal":       filesTotal,
		"filePercent":      filePercent,
		"bytesPerSec":      bytesPerSec,
		"secondsRemaining": secondsRemaining,
	})
}

func (o *jsonObserver) OnCurrentFileChanged(path string) {
	o.emit("current_file", map[string]string{"path": path})
}

func (o *jsonObserver) OnProcessHalted(reason ops.HaltReason, sourcePath, destPath, errorMessage string) {
	o.emit("halted", map[string]string{
		"reason":       reason.String(),
		"sourcePath":   sourcePath,
		"destPath":     destPath,
		"errorMessage": errorMessage,
	})
	// No interactive terminal in JSON mode: skip and let the caller inspect
	// the log to decide whether to rerun with an explicit resolution.
	o.performer.Respond(reason, ops.Skip, "")
}

func (o *jsonObserver) OnProcessFinished(summary string) {
	o.emit("finished", map[string]string{"summary": summary})
	close(o.done)
}
