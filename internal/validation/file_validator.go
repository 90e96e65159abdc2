// Package validation provides file-level checks for the workbook on disk and
// for uploaded spreadsheet content.
package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// xlsxMagic is the ZIP local file header every .xlsx file starts with.
var xlsxMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// FileValidator provides common file validation functions
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbookFile checks that the path looks like an Excel workbook
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		v.logger.Error("File is not an Excel file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not an Excel file (extension: %s)", path, ext)
	}

	// Office lock files start with ~$ and are never valid workbooks.
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	return nil
}

// ValidateUpload checks an uploaded spreadsheet: filename, size, and the
// xlsx magic bytes. Content is the raw upload, already read into memory.
func (v *FileValidator) ValidateUpload(filename string, content []byte, maxSize int64) error {
	if filename == "" {
		return fmt.Errorf("upload filename is empty")
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		v.logger.Warn("Rejected upload with suspicious filename",
			slog.String("filename", filename))
		return fmt.Errorf("invalid upload filename %s", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" {
		return fmt.Errorf("uploaded file must be .xlsx, got %s", ext)
	}

	if len(content) == 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return fmt.Errorf("uploaded file exceeds maximum size of %d bytes", maxSize)
	}

	if len(content) < len(xlsxMagic) || !bytes.Equal(content[:len(xlsxMagic)], xlsxMagic) {
		v.logger.Warn("Rejected upload with wrong file signature",
			slog.String("filename", filename))
		return fmt.Errorf("uploaded file %s is not a valid xlsx workbook", filename)
	}

	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Info("Output directory validated",
		slog.String("directory", dir))
	return nil
}
