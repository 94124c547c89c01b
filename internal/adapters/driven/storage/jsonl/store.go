package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// Store is a file-backed driven.RecordStore.
type Store struct {
	dir        string
	corpusFile string
}

// NewStore creates a store rooted at dir. The directory is created lazily.
func NewStore(dir, corpusFile string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: output directory is required", domain.ErrInvalidInput)
	}
	if corpusFile == "" {
		corpusFile = domain.DefaultCorpusFile
	}
	return &Store{dir: dir, corpusFile: corpusFile}, nil
}

// JobPath returns the output path of a job.
func (s *Store) JobPath(job string) string {
	return filepath.Join(s.dir, domain.JobsDir, job+".jsonl")
}

// CorpusPath returns the combined corpus path.
func (s *Store) CorpusPath() string {
	return filepath.Join(s.dir, s.corpusFile)
}

// SaveJobOutput atomically replaces a job's output.
func (s *Store) SaveJobOutput(ctx context.Context, job string, records []domain.Record) (string, error) {
	if err := validJobName(job); err != nil {
		return "", err
	}
	path := s.JobPath(job)
	if err := writeAtomic(ctx, path, records); err != nil {
		return "", fmt.Errorf("saving job %s: %w", job, err)
	}
	return path, nil
}

// LoadJobOutput reads a job's output.
func (s *Store) LoadJobOutput(ctx context.Context, job string) ([]domain.Record, error) {
	if err := validJobName(job); err != nil {
		return nil, err
	}
	records, err := readFile(ctx, s.JobPath(job))
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", job, err)
	}
	return records, nil
}

// SaveCorpus atomically replaces the combined corpus.
func (s *Store) SaveCorpus(ctx context.Context, records []domain.Record) (string, error) {
	path := s.CorpusPath()
	if err := writeAtomic(ctx, path, records); err != nil {
		return "", fmt.Errorf("saving corpus: %w", err)
	}
	return path, nil
}

// LoadCorpus reads the combined corpus.
func (s *Store) LoadCorpus(ctx context.Context) ([]domain.Record, error) {
	records, err := readFile(ctx, s.CorpusPath())
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	return records, nil
}

func validJobName(job string) error {
	if job == "" || job == "." || job == ".." || strings.ContainsAny(job, `/\`) {
		return fmt.Errorf("%w: job name %q", domain.ErrInvalidInput, job)
	}
	return nil
}

func writeAtomic(ctx context.Context, path string, records []domain.Record) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming: %w", err)
	}
	syncDir(dir)
	return nil
}

// syncDir persists the rename. Not every platform supports fsync on a
// directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func readFile(ctx context.Context, path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	records := []domain.Record{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b := sc.Bytes()
		if len(strings.TrimSpace(string(b))) == 0 {
			continue
		}
		var r domain.Record
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}
	return records, nil
}
