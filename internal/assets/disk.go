package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore persists the last good body of each slot at a fixed path, with the source
// URL in a ".url" sidecar. At most one file per kind exists.
type DiskStore struct {
	Dir string
}

func (d DiskStore) path(kind Kind) string {
	return filepath.Join(d.Dir, kind.String()+".img")
}

// Save writes body and url, replacing any previous file of the same kind.
func (d DiskStore) Save(kind Kind, url string, body []byte) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}
	p := d.path(kind)
	if err := writeAtomic(p, body); err != nil {
		return err
	}
	return writeAtomic(p+".url", []byte(url))
}

// Load returns the persisted url and body. Missing files yield os.ErrNotExist.
func (d DiskStore) Load(kind Kind) (string, []byte, error) {
	p := d.path(kind)
	rawURL, err := os.ReadFile(p + ".url")
	if err != nil {
		return "", nil, err
	}
	body, err := os.ReadFile(p)
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(string(rawURL)), body, nil
}

// Remove deletes the slot's files; absent files are not an error.
func (d DiskStore) Remove(kind Kind) error {
	p := d.path(kind)
	var errs []error
	for _, f := range []string{p, p + ".url"} {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
