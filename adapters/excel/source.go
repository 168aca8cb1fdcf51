package excel

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"redevdash/domain/pipeline"
	"redevdash/ports"
)

// Source serves a workbook as a row source, re-reading it only when the file changes
type Source struct {
	reader *DataReader

	mu      sync.Mutex
	modTime time.Time
	size    int64
	batch   pipeline.Batch
	loaded  bool
}

var _ ports.RowSource = (*Source)(nil)

// NewSource creates a cached row source over a workbook
func NewSource(filePath, sheet string) *Source {
	return &Source{reader: NewDataReader(filePath, sheet)}
}

// Name identifies the source in logs and API responses
func (s *Source) Name() string {
	return "excel:" + s.reader.FilePath()
}

// Load returns the cached batch, reading the file again if its size or modification time changed
func (s *Source) Load(ctx context.Context) (pipeline.Batch, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Batch{}, err
	}

	info, err := os.Stat(s.reader.FilePath())
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("failed to stat workbook: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.batch, nil
	}

	batch, err := s.reader.ReadBatch()
	if err != nil {
		return pipeline.Batch{}, err
	}
	s.batch = batch
	s.modTime = info.ModTime()
	s.size = info.Size()
	s.loaded = true
	s.reader.log.Debug("[ExcelSource] cached %d rows from %s", len(batch.Rows), s.reader.FilePath())
	return batch, nil
}
