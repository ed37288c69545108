// Package fingerprint digests the inputs of a generated file so that stale
// output can be detected without regenerating it.
package fingerprint

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Prefix starts the header line that carries the fingerprint.
const Prefix = "// afmt:fingerprint "

type file struct {
	name    string
	content []byte
}

// Builder accumulates the inputs of one generated file.
type Builder struct {
	settings []string
	files    []file
}

// New returns a Builder. Settings are generator options that change the
// output, such as the stub tag or the binding prefix.
func New(settings ...string) *Builder {
	return &Builder{settings: settings}
}

// AddFile adds a stub file by base name and content.
func (b *Builder) AddFile(path string, content []byte) {
	b.files = append(b.files, file{name: filepath.Base(path), content: content})
}

// AddPaths reads and adds the given stub files.
func (b *Builder) AddPaths(paths ...string) error {
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		b.AddFile(p, content)
	}
	return nil
}

// Sum returns the hex BLAKE3 digest of the settings and files. File order
// does not matter.
func (b *Builder) Sum() string {
	files := make([]file, len(b.files))
	copy(files, b.files)
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	h := blake3.New()
	for _, s := range b.settings {
		writeField(h, []byte(s))
	}
	for _, f := range files {
		writeField(h, []byte(f.name))
		writeField(h, f.content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes a length-prefixed field so adjacent fields cannot run
// into each other.
func writeField(h *blake3.Hasher, data []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(data)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(data)
}

// Read returns the fingerprint stamped in the header of a generated file.
// Only the leading comment block is searched.
func Read(src []byte) (string, bool) {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "//") {
			break
		}
		if sum, ok := strings.CutPrefix(line, Prefix); ok {
			return strings.TrimSpace(sum), true
		}
	}
	return "", false
}
