package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	m "gooze.dev/pkg/mutants/internal/model"
)

const (
	// OutputDirName is the directory created under the output root.
	OutputDirName = "mutants.out"
	// OldOutputDirName receives the previous output when a run starts.
	OldOutputDirName = OutputDirName + ".old"
	// GateFileName is locked for the life of a run. It sits next to the
	// output directory so it survives rotation.
	GateFileName = OutputDirName + ".lock"

	catalogFileName      = "mutants.json"
	outcomesFileName     = "outcomes.json"
	lockFileName         = "lock.json"
	journalFileName      = "outcomes.journal"
	previouslyCaughtName = "previously_caught.txt"
	logDirName           = "log"
	diffDirName          = "diff"
	outputFilePerm       = 0o644
	outputDirPerm        = 0o755
)

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

var listFileNames = map[m.Summary]string{
	m.Caught:   "caught.txt",
	m.Missed:   "missed.txt",
	m.Timeout:  "timeout.txt",
	m.Unviable: "unviable.txt",
}

// LockInfo is written into lock.json while a run holds the output directory.
type LockInfo struct {
	StartTime time.Time `json:"start_time"`
	Hostname  string    `json:"hostname"`
	Username  string    `json:"username"`
	PID       int       `json:"pid"`
	RunID     string    `json:"run_id"`
}

// ReportStore manages the on-disk output directory of a run.
type ReportStore interface {
	// Open rotates any previous output to mutants.out.old, creates a fresh
	// output directory under root and locks it for the life of the run.
	Open(ctx context.Context, root m.Path) (OutputDir, error)

	// ReadPrevious returns the mutant names recorded as caught, unviable or
	// previously caught by the output under root. Missing files yield nothing.
	ReadPrevious(ctx context.Context, root m.Path) ([]string, error)
}

// OutputDir is an open, locked output directory.
//
//nolint:interfacebloat // one method per artifact written by a run.
type OutputDir interface {
	Path() m.Path
	JournalPath() m.Path
	WriteCatalog(ctx context.Context, mutants []m.Mutant) error
	WriteOutcomes(ctx context.Context, doc any) error
	AppendName(ctx context.Context, summary m.Summary, name string) error
	CreateLog(ctx context.Context, name string) (io.WriteCloser, m.Path, error)
	WriteDiff(ctx context.Context, name, diff string) (m.Path, error)
	WritePreviouslyCaught(ctx context.Context, names []string) error
	Close() error
}

// LocalReportStore is the filesystem ReportStore.
type LocalReportStore struct{}

// NewReportStore constructs a LocalReportStore.
func NewReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// Open implements ReportStore.
func (s *LocalReportStore) Open(_ context.Context, root m.Path) (OutputDir, error) {
	dir := filepath.Join(string(root), OutputDirName)
	old := filepath.Join(string(root), OldOutputDirName)

	if err := os.MkdirAll(string(root), outputDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", root, err)
	}

	// The gate is taken before anything is rotated, so a concurrent Open
	// fails with ErrLocked instead of moving a live output directory.
	gate, err := openLocked(filepath.Join(string(root), GateFileName))
	if err != nil {
		return nil, err
	}

	out, err := openOutputDir(dir, old)
	if err != nil {
		_ = releaseLock(gate)
		return nil, err
	}

	out.gate = gate

	return out, nil
}

func openOutputDir(dir, old string) (*outputDir, error) {
	if _, err := os.Stat(dir); err == nil {
		if err := os.RemoveAll(old); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", old, err)
		}

		if err := os.Rename(dir, old); err != nil {
			return nil, fmt.Errorf("failed to rotate %s: %w", dir, err)
		}
	}

	for _, sub := range []string{dir, filepath.Join(dir, logDirName), filepath.Join(dir, diffDirName)} {
		if err := os.MkdirAll(sub, outputDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	lock, err := acquireLock(filepath.Join(dir, lockFileName))
	if err != nil {
		return nil, err
	}

	return &outputDir{path: dir, lock: lock, logNames: make(map[string]int)}, nil
}

// ReadPrevious implements ReportStore.
func (s *LocalReportStore) ReadPrevious(_ context.Context, root m.Path) ([]string, error) {
	dir := filepath.Join(string(root), OutputDirName)

	var names []string

	for _, name := range []string{listFileNames[m.Caught], listFileNames[m.Unviable], previouslyCaughtName} {
		lines, err := readLines(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		names = append(names, lines...)
	}

	return names, nil
}

// openLocked opens path and takes an exclusive lock on it, failing with
// ErrLocked when another run holds it.
func openLocked(path string) (*os.File, error) {
	// #nosec G304 - lock file inside the output root
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, outputFilePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return f, nil
}

func releaseLock(f *os.File) error {
	return errors.Join(unlockFile(f), f.Close())
}

// acquireLock locks lock.json and records the run holding it.
func acquireLock(path string) (*os.File, error) {
	f, err := openLocked(path)
	if err != nil {
		return nil, err
	}

	info := LockInfo{
		StartTime: time.Now(),
		PID:       os.Getpid(),
		RunID:     uuid.NewString(),
	}
	info.Hostname, _ = os.Hostname()

	if u, err := user.Current(); err == nil {
		info.Username = u.Username
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		_ = releaseLock(f)
		return nil, err
	}

	if err := f.Truncate(0); err != nil {
		slog.Warn("Failed to truncate lock file", "path", path, "error", err)
	}

	if _, err := f.WriteAt(append(data, '\n'), 0); err != nil {
		slog.Warn("Failed to write lock file", "path", path, "error", err)
	}

	return f, nil
}

type outputDir struct {
	path string
	lock *os.File
	gate *os.File

	mu       sync.Mutex
	logNames map[string]int
}

func (o *outputDir) Path() m.Path {
	return m.Path(o.path)
}

func (o *outputDir) JournalPath() m.Path {
	return m.Path(filepath.Join(o.path, journalFileName))
}

func (o *outputDir) WriteCatalog(_ context.Context, mutants []m.Mutant) error {
	if mutants == nil {
		mutants = []m.Mutant{}
	}

	return writeJSONAtomic(filepath.Join(o.path, catalogFileName), mutants)
}

func (o *outputDir) WriteOutcomes(_ context.Context, doc any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return writeJSONAtomic(filepath.Join(o.path, outcomesFileName), doc)
}

func (o *outputDir) AppendName(_ context.Context, summary m.Summary, name string) error {
	fileName, ok := listFileNames[summary]
	if !ok {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	return appendLine(filepath.Join(o.path, fileName), name)
}

// CreateLog creates log/<name>.log, making name unique within the run.
func (o *outputDir) CreateLog(_ context.Context, name string) (io.WriteCloser, m.Path, error) {
	o.mu.Lock()
	n := o.logNames[name]
	o.logNames[name] = n + 1
	o.mu.Unlock()

	if n > 0 {
		name = name + "_" + strconv.Itoa(n)
	}

	path := filepath.Join(o.path, logDirName, name+".log")

	// #nosec G304 - log file inside the output directory
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log %s: %w", path, err)
	}

	rel := filepath.ToSlash(filepath.Join(logDirName, name+".log"))

	return f, m.Path(rel), nil
}

func (o *outputDir) WriteDiff(_ context.Context, name, diff string) (m.Path, error) {
	rel := filepath.Join(diffDirName, name+".diff")
	if err := os.WriteFile(filepath.Join(o.path, rel), []byte(diff), outputFilePerm); err != nil {
		return "", fmt.Errorf("failed to write diff: %w", err)
	}

	return m.Path(filepath.ToSlash(rel)), nil
}

func (o *outputDir) WritePreviouslyCaught(_ context.Context, names []string) error {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}

	return os.WriteFile(filepath.Join(o.path, previouslyCaughtName), []byte(b.String()), outputFilePerm)
}

// Close releases the locks. lock.json stays behind as a record of the run.
func (o *outputDir) Close() error {
	var err error

	if o.lock != nil {
		err = releaseLock(o.lock)
		o.lock = nil
	}

	if o.gate != nil {
		err = errors.Join(err, releaseLock(o.gate))
		o.gate = nil
	}

	return err
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	if err := os.Chmod(tmp.Name(), outputFilePerm); err != nil {
		slog.Debug("Failed to chmod output file", "path", tmp.Name(), "error", err)
	}

	return os.Rename(tmp.Name(), path)
}

func appendLine(path, line string) error {
	// #nosec G304 - list file inside the output directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, outputFilePerm)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func readLines(path string) ([]string, error) {
	// #nosec G304 - list file inside a previous output directory
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	defer func() { _ = f.Close() }()

	var lines []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	return lines, scanner.Err()
}
