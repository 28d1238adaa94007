package store

import (
	"errors"
	"fmt"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

const documentFileMode = 0o600

type FileManager struct {
	compressor CompressorInterface
	logger     providers.Logger
	rename     func(oldPath, newPath string) error
	now        func() time.Time
}

func NewFileManager(compressor CompressorInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		logger:     logger,
		rename:     os.Rename,
		now:        time.Now,
	}
}

// SaveToFile replaces fileName with doc. The bytes go to a temp file in the
// same directory which is synced and renamed over the target, so readers see
// either the previous document or the new one.
func (f *FileManager) SaveToFile(fileName string, doc *models.Document) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return fmt.Errorf("compress document: %w", err)
	}

	dir := filepath.Dir(fileName)
	file, err := os.CreateTemp(dir, filepath.Base(fileName)+".tmp.*")
	if err != nil {
		return err
	}
	tmpFile := file.Name()
	cleanup := func() { _ = os.Remove(tmpFile) }

	if _, err = file.Write(data); err != nil {
		file.Close()
		cleanup()
		return err
	}
	if err = file.Sync(); err != nil {
		file.Close()
		cleanup()
		return err
	}
	if err = file.Chmod(documentFileMode); err != nil {
		file.Close()
		cleanup()
		return err
	}
	if err = file.Close(); err != nil {
		cleanup()
		return err
	}
	if err = f.rename(tmpFile, fileName); err != nil {
		cleanup()
		return err
	}

	syncDir(dir)
	return nil
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile returns the stored document, or a fresh one when the file
// does not exist yet. Temp files left by an interrupted write are ignored.
func (f *FileManager) LoadFromFile(fileName string) (*models.Document, error) {
	doc := models.NewDocument(f.now())

	data, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.logger.Infof(providers.TypeStore, "No document at %s, starting empty", fileName)
			return doc, nil
		}
		return nil, err
	}

	raw, err := f.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", fileName, err)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fileName, err)
	}
	doc.Normalize()
	return doc, nil
}

// decode follows the file's own encoding so flipping persistence.compress
// does not strand an existing document.
func (f *FileManager) decode(data []byte) ([]byte, error) {
	zc, compressed := f.compressor.(*ZstdCompression)
	switch {
	case isZstd(data) && compressed:
		return zc.Decompress(data)
	case isZstd(data):
		f.logger.Warnf(providers.TypeStore, "Document is zstd-compressed while compression is off, converting")
		z, err := NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		defer z.Close()
		return z.Decompress(data)
	case compressed:
		return data, nil
	default:
		return f.compressor.Decompress(data)
	}
}
