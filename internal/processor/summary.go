package processor

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// summaryMessage describes a finished run.
func summaryMessage(s Summary, mode Mode) string {
	if s.Cancelled {
		return printer.Sprintf("Cancelled after %d files", s.Completed)
	}
	fallback := "processing files"
	if mode == ModeScript {
		fallback = "script"
	}
	return countsMessage(s, fallback)
}

// countsMessage reports the most significant kind of work done, preferring
// extract and convert together, then extract, convert, restore and backup.
func countsMessage(s Summary, fallback string) string {
	switch {
	case s.Extracted > 0 && s.Converted > 0:
		return printer.Sprintf("Finished extracting and converting %d files", s.Extracted+s.Converted)
	case s.Extracted > 0:
		return printer.Sprintf("Finished extracting %d files", s.Extracted)
	case s.Converted > 0:
		return printer.Sprintf("Finished converting %d files", s.Converted)
	case s.Restored > 0:
		return printer.Sprintf("Finished restoring %d files", s.Restored)
	case s.BackedUp > 0:
		return printer.Sprintf("Finished backing up %d files", s.BackedUp)
	default:
		return "Finished " + fallback
	}
}
