package bclone

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/unixpickle/essentials"
)

// ScalarsFile is the name of the file in which a FileSink
// stores its scalars.
const ScalarsFile = "scalars.csv"

// A Sink records scalar metrics.
type Sink interface {
	AddScalar(tag string, value float64, step int) error
	Close() error
}

// FileSink is a Sink which appends one CSV record per
// scalar to a file in a log directory.
//
// Records are formatted as tag,step,value,unix_time.
type FileSink struct {
	lock   sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewFileSink creates the log directory if necessary and
// opens a sink which appends to it.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, essentials.AddCtx("create sink", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, ScalarsFile),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, essentials.AddCtx("create sink", err)
	}
	return &FileSink{file: f, writer: csv.NewWriter(f)}, nil
}

// AddScalar writes a scalar and flushes it to disk.
func (f *FileSink) AddScalar(tag string, value float64, step int) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.writer.Write([]string{
		tag,
		strconv.Itoa(step),
		strconv.FormatFloat(value, 'g', -1, 64),
		strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 3, 64),
	})
	f.writer.Flush()
	return essentials.AddCtx("add scalar", f.writer.Error())
}

// Close flushes and closes the underlying file.
func (f *FileSink) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.writer.Flush()
	if err := f.writer.Error(); err != nil {
		f.file.Close()
		return err
	}
	return f.file.Close()
}

// LogDirs returns the training and validation log
// directories for a run which started at the given time.
func LogDirs(root string, start time.Time, expName string) (train, valid string) {
	stamp := start.Format("2006-01-02 15:04:05.000000")
	train = filepath.Join(root, stamp+"BC_train_"+expName)
	valid = filepath.Join(root, stamp+"BC_valid_"+expName)
	return
}
