package grabhttp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tmmtools/modgrab/internal/fetch"
)

// fileWriter assembles engine content into the output file. Concurrent
// chunks land via WriteAt at their absolute offset, so arrival order does
// not matter; single-stream content advances a sequential cursor that
// starts at the resume offset.
type fileWriter struct {
	fetch.NoopEvents
	file   *os.File
	offset int64
}

func newFileWriter(path string, resumeOffset int64) (*fileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %v", err)
	}
	flag := os.O_CREATE | os.O_WRONLY
	if resumeOffset == 0 {
		flag |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening output file: %v", err)
	}
	return &fileWriter{file: file, offset: resumeOffset}, nil
}

func (w *fileWriter) OnContent(data []byte) error {
	n, err := w.file.WriteAt(data, w.offset)
	w.offset += int64(n)
	if err != nil {
		return fmt.Errorf("error writing to output file: %v", err)
	}
	return nil
}

func (w *fileWriter) OnConcurrentContent(count, offset int64, data []byte) error {
	if _, err := w.file.WriteAt(data, offset); err != nil {
		return fmt.Errorf("error writing chunk at offset %d: %v", offset, err)
	}
	return nil
}

func (w *fileWriter) Close() error {
	return w.file.Close()
}

// progressHook bridges engine byte counts to the job's progress callback.
type progressHook struct {
	fetch.NoopEvents
	total      int64
	downloaded int64
	report     func(downloaded, total int64)
}

func (p *progressHook) OnResume(bytesOnDisk int64) {
	p.downloaded = bytesOnDisk
}

func (p *progressHook) OnContentLength(length int64) {
	if p.total <= 0 {
		p.total = length
	}
}

func (p *progressHook) OnContent(data []byte) error {
	p.downloaded += int64(len(data))
	p.emit()
	return nil
}

func (p *progressHook) OnConcurrentContent(count, offset int64, data []byte) error {
	p.downloaded += count
	p.emit()
	return nil
}

func (p *progressHook) OnFinish() {
	p.emit()
}

func (p *progressHook) emit() {
	if p.report != nil {
		p.report(p.downloaded, p.total)
	}
}
