package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит ключи в одном JSON-файле с правами 0600.
// Запись идёт через временный файл и rename, так что после падения процесса
// на диске остаётся либо старое, либо новое содержимое.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создаёт каталог под файл (0700), сам файл появляется при первой записи.
func NewFileStore(path string) (*FileStore, error) {
	const op = "credentials/NewFileStore"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &FileStore{path: path}, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	const op = "credentials/FileStore.Get"

	if key == "" {
		return "", false, ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	v, ok := data[key]
	return v, ok, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	const op = "credentials/FileStore.Set"

	if key == "" {
		return ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data[key] = value

	if err := f.write(data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (f *FileStore) Remove(_ context.Context, key string) error {
	const op = "credentials/FileStore.Remove"

	if key == "" {
		return ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := data[key]; !ok {
		return nil
	}

	delete(data, key)

	if err := f.write(data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// read возвращает пустую карту, если файла ещё нет.
func (f *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}

	if err != nil {
		return nil, err
	}

	data := make(map[string]string)
	if len(raw) == 0 {
		return data, nil
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	return data, nil
}

func (f *FileStore) write(data map[string]string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credentials-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, f.path)
}

var _ Store = (*FileStore)(nil)
