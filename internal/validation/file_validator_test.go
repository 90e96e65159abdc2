package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		err := v.ValidateFile(filepath.Join(dir, "nope.xlsx"))
		assert.Error(t, err)
	})

	t.Run("directory", func(t *testing.T) {
		err := v.ValidateFile(dir)
		assert.Error(t, err)
	})

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(dir, "deals.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04data"), 0o644))
		assert.NoError(t, v.ValidateFile(path))
	})
}

func TestValidateWorkbookFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(dir, "deals.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b"), 0o644))
		assert.Error(t, v.ValidateWorkbookFile(path))
	})

	t.Run("office lock file", func(t *testing.T) {
		path := filepath.Join(dir, "~$deals.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		assert.Error(t, v.ValidateWorkbookFile(path))
	})

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "deals.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04data"), 0o644))
		assert.NoError(t, v.ValidateWorkbookFile(path))
	})
}

func TestValidateUpload(t *testing.T) {
	v := NewFileValidator(nil)
	valid := []byte("PK\x03\x04rest-of-zip")

	tests := []struct {
		name     string
		filename string
		content  []byte
		maxSize  int64
		wantErr  bool
	}{
		{"valid", "deals.xlsx", valid, 1024, false},
		{"empty name", "", valid, 1024, true},
		{"traversal", "../deals.xlsx", valid, 1024, true},
		{"wrong extension", "deals.csv", valid, 1024, true},
		{"empty content", "deals.xlsx", nil, 1024, true},
		{"too large", "deals.xlsx", valid, 4, true},
		{"wrong magic", "deals.xlsx", []byte("not a zip"), 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.filename, tt.content, tt.maxSize)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)
	dir := filepath.Join(t.TempDir(), "backups")

	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
