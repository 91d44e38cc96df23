package checkpoint

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"waybackfill/internal/logging"
	"waybackfill/internal/slugpair"
)

// ErrLocked is returned when another process holds the store's writer lock.
var ErrLocked = errors.New("checkpoint store is locked by another process")

const maxLineBytes = 1 << 20

// Record is one resolved pair as persisted in the log.
type Record struct {
	ID  slugpair.ID `json:"id"`
	URL *string     `json:"url"`
}

// Store is an append-only JSON-lines log of resolved pairs.
type Store struct {
	path   string
	logger *slog.Logger
	lock   *flock.Flock

	tailChecked bool
}

// Open prepares the store at path, creating the parent directory. Opening
// never modifies the log.
func Open(path string, logger *slog.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("checkpoint path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "checkpoint"),
		lock:   flock.New(path + ".lock"),
	}, nil
}

// Path returns the log file location.
func (s *Store) Path() string {
	return s.path
}

// Lock takes the single-writer lock without blocking.
func (s *Store) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire checkpoint lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (%s)", ErrLocked, s.lock.Path())
	}
	return nil
}

// Unlock releases the writer lock.
func (s *Store) Unlock() error {
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release checkpoint lock: %w", err)
	}
	return nil
}

// LoadProcessed returns the identifiers already recorded. A missing log is an
// empty set; unparseable lines are skipped.
func (s *Store) LoadProcessed() (map[slugpair.ID]struct{}, error) {
	processed := make(map[slugpair.ID]struct{})
	skipped, err := s.scan(func(rec Record) {
		processed[rec.ID] = struct{}{}
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logging.WarnWithContext(s.logger, "skipped unreadable checkpoint lines",
			"checkpoint_lines_skipped",
			logging.Int("skipped", skipped),
			logging.String("path", s.path),
			logging.String(logging.FieldErrorHint, "usually a record cut short by an interrupted run"),
			logging.String(logging.FieldImpact, "pairs on skipped lines will be looked up again"),
		)
	}
	s.logger.Debug("loaded checkpoint",
		logging.Int("processed", len(processed)),
		logging.String("path", s.path))
	return processed, nil
}

// Append writes one record and flushes it to disk. A nil url records that no
// snapshot was found. Before the first write, a partial trailing line left by
// a killed run is terminated so the new record starts on a fresh line.
func (s *Store) Append(id slugpair.ID, url *string) error {
	if !s.tailChecked {
		if err := s.terminateTail(); err != nil {
			return err
		}
		s.tailChecked = true
	}

	line, err := json.Marshal(Record{ID: id, URL: url})
	if err != nil {
		return fmt.Errorf("encode checkpoint record: %w", err)
	}
	line = append(line, '\n')

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}
	if _, err := file.Write(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("append checkpoint record: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	return nil
}

// scan calls fn for every well-formed record and returns the number of
// non-blank lines it could not parse.
func (s *Store) scan(fn func(Record)) (int, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open checkpoint: %w", err)
	}
	defer file.Close()

	skipped := 0
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		raw, oversized, err := readLine(reader)
		if len(raw) > 0 || oversized {
			line := strings.TrimSpace(string(raw))
			switch {
			case oversized:
				skipped++
			case line == "":
			default:
				if rec, ok := parseRecord(line); ok {
					fn(rec)
				} else {
					skipped++
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err != nil {
			return skipped, fmt.Errorf("read checkpoint: %w", err)
		}
	}
}

// readLine returns the next line without its newline. Lines longer than
// maxLineBytes are drained up to the next newline and reported as oversized
// with no content.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	oversized := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > maxLineBytes+1 {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if oversized {
			return nil, true, err
		}
		return bytes.TrimSuffix(line, []byte{'\n'}), false, err
	}
}

func parseRecord(line string) (Record, bool) {
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Record{}, false
	}
	if strings.TrimSpace(string(rec.ID)) == "" {
		return Record{}, false
	}
	return rec, true
}

func (s *Store) terminateTail() error {
	file, err := os.OpenFile(s.path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open checkpoint: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat checkpoint: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read checkpoint tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek checkpoint tail: %w", err)
	}
	if _, err := file.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("terminate checkpoint tail: %w", err)
	}
	logging.WarnWithContext(s.logger, "terminated partial checkpoint line",
		"checkpoint_tail_repaired",
		logging.String("path", s.path),
		logging.String(logging.FieldImpact, "the interrupted record is ignored and its pair is looked up again"),
	)
	return nil
}
