package campfire

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExportError is a local filesystem failure: a traversal attempt, a
// refused write or a verification mismatch.
type ExportError struct {
	Path    string
	Message string
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// FileMirror receives every file after it lands on disk.
type FileMirror interface {
	Mirror(ctx context.Context, localPath, relPath string) error
}

// LocalExporter owns the campfire/ output tree, the append-only error
// log and the no-overwrite discipline that makes re-runs safe.
type LocalExporter struct {
	root      string // absolute path of the campfire/ tree
	subdomain string
	mirror    FileMirror
	errLog    *os.File
	runID     string
	failures  int
	logger    *slog.Logger
}

func NewLocalExporter(conf *Config) (*LocalExporter, error) {
	root, err := filepath.Abs(filepath.Join(conf.ExportRoot, "campfire"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	errLog, err := os.OpenFile(filepath.Join(root, "export_errors.txt"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &LocalExporter{
		root:      root,
		subdomain: conf.Subdomain,
		errLog:    errLog,
		runID:     uuid.NewString(),
		logger:    conf.Logger,
	}, nil
}

func (e *LocalExporter) Close() error {
	return e.errLog.Close()
}

// LogFailure writes a unit failure to the console and to the persistent
// error log, so a multi-day run can be audited without watching the
// console. The run ID separates runs in the shared append-only file.
func (e *LocalExporter) LogFailure(unit string, err error) {
	e.failures++
	e.logger.Error(unit, "error", err)
	fmt.Fprintf(e.errLog, "%s run=%s %s: %v\n",
		time.Now().Format(time.RFC3339), e.runID, unit, err)
}

// ExportDir returns the day directory for a room. Months and days are
// zero-padded on disk even though the API paths are not.
func (e *LocalExporter) ExportDir(room *Room, date time.Time) string {
	return filepath.Join(e.root, e.subdomain, sanitizeName(room.Name),
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d", date.Day()))
}

// ExportFile writes content to dir/relPath. A resolved target outside
// the export tree is refused with an error: filenames come from the
// remote service and must not be able to write elsewhere. An existing
// file means a previous run already finished this unit, so the write is
// skipped. Plain write failures are logged, not returned, so sibling
// exports keep going.
func (e *LocalExporter) ExportFile(ctx context.Context, dir, relPath string, content []byte) error {
	sep := string(filepath.Separator)
	target := filepath.Join(dir, relPath)
	if !strings.HasPrefix(target, dir+sep) || !strings.HasPrefix(target, e.root+sep) {
		err := &ExportError{Path: target, Message: "escapes the export directory"}
		e.LogFailure("export file", err)
		return err
	}

	if _, err := os.Stat(target); err == nil {
		e.LogFailure("export file", &ExportError{Path: target, Message: "file exists, not overwriting"})
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		e.LogFailure("export file", err)
		return nil
	}
	if err := os.WriteFile(target, content, 0644); err != nil {
		e.LogFailure("export file", err)
		return nil
	}

	if e.mirror != nil {
		rel := strings.TrimPrefix(target, e.root+string(filepath.Separator))
		if err := e.mirror.Mirror(ctx, target, rel); err != nil {
			e.LogFailure(fmt.Sprintf("mirror %s", rel), err)
		}
	}
	return nil
}

// VerifyExport confirms the file exists with the expected size. Catches
// silent truncation before the run moves on.
func (e *LocalExporter) VerifyExport(dir, relPath string, wantLen int64) error {
	target := filepath.Join(dir, relPath)
	fi, err := os.Stat(target)
	if err != nil {
		return &ExportError{Path: target, Message: "file not found after export"}
	}
	if fi.Size() != wantLen {
		return &ExportError{
			Path:    target,
			Message: fmt.Sprintf("expected %d bytes, found %d", wantLen, fi.Size()),
		}
	}
	return nil
}

// sanitizeName makes a room name safe as a single path segment.
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
