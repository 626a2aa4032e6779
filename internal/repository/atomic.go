package repository

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var codec = sonic.ConfigStd

// encodeChecked marshals v and confirms the bytes decode back to a value that
// re-encodes identically.
func encodeChecked[T any](v T) ([]byte, error) {
	raw, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, crerr.Wrap(err, "marshal document")
	}
	if err := verifyEncoding[T](raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func verifyEncoding[T any](raw []byte) error {
	var probe T
	if err := codec.Unmarshal(raw, &probe); err != nil {
		return crerr.Wrapf(ErrValidation, "decode: %v", err)
	}
	again, err := codec.MarshalIndent(probe, "", "  ")
	if err != nil {
		return crerr.Wrapf(ErrValidation, "re-encode: %v", err)
	}
	if !bytes.Equal(raw, again) {
		return crerr.Wrap(ErrValidation, "round trip mismatch")
	}
	return nil
}

// writeAtomic stages raw next to path, re-reads and re-validates it, then
// renames it over path. On any failure the live file is untouched.
func writeAtomic[T any](path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return crerr.Wrap(err, "create data directory")
	}

	id, err := gonanoid.New()
	if err != nil {
		return crerr.Wrap(err, "generate temp file id")
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, id)

	if err := writeSynced(tmp, raw); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	staged, err := os.ReadFile(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return crerr.Wrap(err, "re-read staged file")
	}
	if !bytes.Equal(staged, raw) {
		_ = os.Remove(tmp)
		return crerr.Wrap(ErrValidation, "staged file differs from encoded document")
	}
	if err := verifyEncoding[T](staged); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return crerr.Wrap(err, "replace live file")
	}
	return nil
}

func writeSynced(path string, raw []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return crerr.Wrap(err, "create staged file")
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return crerr.Wrap(err, "write staged file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return crerr.Wrap(err, "sync staged file")
	}
	return f.Close()
}

// preserveCorrupt copies an unreadable document aside so a later write does
// not destroy the only copy.
func preserveCorrupt(path string, raw []byte) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.corrupt-%s", path, id)
	if err := os.WriteFile(backup, raw, 0o644); err != nil {
		return "", err
	}
	return backup, nil
}
