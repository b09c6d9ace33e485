package processor

import (
	"time"

	"go.uber.org/zap"

	"xnbconv/internal/convert"
	"xnbconv/internal/extract"
	"xnbconv/internal/xnb"
)

// Mode selects which kinds of input a run acts on.
type Mode int

const (
	ModeAny Mode = iota
	ModeExtract
	ModeConvert
	ModeBackup
	ModeRestore
	ModeScript
)

func (m Mode) String() string {
	switch m {
	case ModeAny:
		return "any"
	case ModeExtract:
		return "extract"
	case ModeConvert:
		return "convert"
	case ModeBackup:
		return "backup"
	case ModeRestore:
		return "restore"
	case ModeScript:
		return "script"
	default:
		return "unknown"
	}
}

// IsCopy reports whether the mode mirrors files instead of converting them.
// Copy runs require an explicit output for every input.
func (m Mode) IsCopy() bool {
	return m == ModeBackup || m == ModeRestore
}

func (m Mode) extracts() bool { return m == ModeAny || m == ModeExtract }
func (m Mode) converts() bool { return m == ModeAny || m == ModeConvert }
func (m Mode) scripts() bool  { return m == ModeAny || m == ModeScript }

// DefaultThrottle is the minimum gap between unforced progress reports.
const DefaultThrottle = 50 * time.Millisecond

// Options configures a run.
type Options struct {
	Mode Mode

	// Compress and Premultiply are the defaults for direct inputs and the
	// root scope of every script.
	Compress    bool
	Premultiply bool
	HiDef       bool

	HonorOrientation bool
	Include          extract.Include

	// Compressor is used for items that ask for compression. A nil or
	// unavailable compressor silently disables compression.
	Compressor xnb.Compressor
	Transcoder convert.Transcoder
	Scratch    *convert.Scratch
	Extractor  extract.Extractor

	Logger   *zap.Logger
	Throttle time.Duration

	now func() time.Time
}

// WorkItem is one input/output pair with the settings that apply to it.
// Its layout matches script.Item so resolved script entries convert directly.
type WorkItem struct {
	Input       string
	Output      string
	Compress    bool
	Premultiply bool
}

// LogEntry is one warning or error recorded during a run.
type LogEntry struct {
	Warning bool
	Message string
	Reason  string
	Kind    ErrorKind
	Path    string
}

// Progress is a snapshot of a run sent to the reporting layer.
type Progress struct {
	Status    string
	Total     int
	Completed int
	Percent   float64
	Errors    int
	Warnings  int
	Done      bool
}

// Summary describes a finished run.
type Summary struct {
	Message   string
	Total     int
	Completed int
	Extracted int
	Converted int
	BackedUp  int
	Restored  int
	Cancelled bool
	Log       []LogEntry
}

// Errors counts the error entries in the log.
func (s Summary) Errors() int {
	n := 0
	for _, entry := range s.Log {
		if !entry.Warning {
			n++
		}
	}
	return n
}

// Warnings counts the warning entries in the log.
func (s Summary) Warnings() int {
	return len(s.Log) - s.Errors()
}
