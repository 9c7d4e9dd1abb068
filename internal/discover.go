package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rm-hull/strip-slicer/internal/errors"
)

// ListImages returns the files directly inside dir whose extension matches one of
// extensions (case-insensitive), sorted by file name.
func ListImages(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to read input directory").WithPath(dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if hasExtension(entry.Name(), extensions) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(dir, name)
	}
	return files, nil
}

// ReadImageList reads one image path per line, skipping blank lines and trimming whitespace.
func ReadImageList(listFile string) ([]string, error) {
	f, err := os.Open(listFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to open list file").WithPath(listFile)
	}
	defer func() {
		_ = f.Close()
	}()

	var files []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			files = append(files, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to read list file").WithPath(listFile)
	}
	return files, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range extensions {
		want = strings.ToLower(strings.TrimSpace(want))
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}
