package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File suffixes inside a cache location.
const (
	PlanSuffix      = ".plan.yaml"
	RenditionSuffix = ".gen.go"
)

const (
	generatedHeader = "# Code generated by speedioc; DO NOT EDIT."
	checksumPrefix  = "# Plan-SHA256: "
)

var (
	// ErrNotFound is returned by Load when no plan exists for the identity.
	ErrNotFound = errors.New("artifact: not found")
	// ErrChecksum is returned when a plan body does not match its header checksum.
	ErrChecksum = errors.New("artifact: checksum mismatch")
	// ErrFormat is returned for files that are not plans of a supported version.
	ErrFormat = errors.New("artifact: unsupported format")
)

// PlanPath returns the plan file of identity under dir.
func PlanPath(dir, identity string) string {
	return filepath.Join(dir, identity+PlanSuffix)
}

// RenditionPath returns the Go rendition file of identity under dir.
func RenditionPath(dir, identity string) string {
	return filepath.Join(dir, identity+RenditionSuffix)
}

// Encode renders p with a checksum header.
func Encode(p *Plan) ([]byte, error) {
	body, err := yaml.Marshal(p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(generatedHeader + "\n")
	buf.WriteString(checksumPrefix + SHA256Hex(body) + "\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// Decode parses and verifies data produced by Encode.
func Decode(data []byte) (*Plan, error) {
	header, body, ok := splitHeader(data)
	if !ok {
		return nil, fmt.Errorf("%w: missing plan header", ErrFormat)
	}
	if got := SHA256Hex(body); got != header {
		return nil, fmt.Errorf("%w: header %s, body %s", ErrChecksum, header, got)
	}
	var p Plan
	if err := yaml.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if p.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrFormat, p.Version)
	}
	return &p, nil
}

// splitHeader returns the checksum and the body that follows the header lines.
func splitHeader(data []byte) (sum string, body []byte, ok bool) {
	rest := data
	for len(rest) > 0 && rest[0] == '#' {
		line := rest
		next := []byte(nil)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, next = rest[:i], rest[i+1:]
		}
		if s, found := strings.CutPrefix(string(line), checksumPrefix); found {
			sum = strings.TrimSpace(s)
		}
		rest = next
	}
	return sum, rest, sum != ""
}

// Save writes p to its plan path under dir.
func Save(dir string, p *Plan) (string, error) {
	data, err := Encode(p)
	if err != nil {
		return "", err
	}
	path := PlanPath(dir, p.Identity)
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the plan of identity under dir. A missing file is ErrNotFound.
func Load(dir, identity string) (*Plan, error) {
	path := PlanPath(dir, identity)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Decode(data)
}

// Exists reports whether a plan file exists for identity under dir.
func Exists(dir, identity string) bool {
	_, err := os.Stat(PlanPath(dir, identity))
	return err == nil
}

// List returns the identities with a plan file under dir, sorted.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+PlanSuffix))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), PlanSuffix))
	}
	sort.Strings(out)
	return out, nil
}

// Purge removes the plan and rendition of identity under dir. Missing files
// are not an error. It returns the paths removed.
func Purge(dir, identity string) ([]string, error) {
	var removed []string
	for _, path := range []string{PlanPath(dir, identity), RenditionPath(dir, identity)} {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
		case errors.Is(err, os.ErrNotExist):
		default:
			return removed, err
		}
	}
	return removed, nil
}

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes to a temporary file in the target directory and
// renames it over the target, so readers never observe partial writes.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	tmpFile, err := createTempFile(filepath.Dir(targetPath), filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}
