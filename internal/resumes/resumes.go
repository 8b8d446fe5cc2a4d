// Package resumes stores uploaded résumés on disk.
package resumes

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const fallbackName = "resume"

// Sanitize reduces name to its base name and keeps only ASCII letters, digits and "-_.() ".
func Sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune("-_.() ", r):
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if strings.Trim(out, ".") == "" {
		return fallbackName
	}
	return out
}

// Save writes r to dir as YYYYMMDDHHMMSS_<sanitized name> and returns the path.
// An existing file with that name is never overwritten.
func Save(dir, name string, r io.Reader, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create resumes dir %s", dir)
	}
	base := now.Format("20060102150405") + "_" + Sanitize(name)
	path := filepath.Join(dir, base)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	for i := 1; os.IsExist(err); i++ {
		ext := filepath.Ext(base)
		path = filepath.Join(dir, strings.TrimSuffix(base, ext)+fmt.Sprintf("-%d%s", i, ext))
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to create resume file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", errors.Wrap(err, "failed to write resume")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", errors.Wrap(err, "failed to close resume")
	}
	return path, nil
}
