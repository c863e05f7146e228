package thumbs

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// maxEntrySize bounds one decompressed archive entry.
const maxEntrySize = 64 << 20

// archive indexes the file entries of a thumbnail zip.
type archive struct {
	files  []*zip.File
	byName map[string]*zip.File
}

func openArchive(data []byte) (*archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	a := &archive{byName: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		a.files = append(a.files, f)
		if _, dup := a.byName[f.Name]; !dup {
			a.byName[f.Name] = f
		}
	}
	return a, nil
}

// find returns the entry for a photo: the entry named fileName, else the
// first entry whose name contains the ID or the file name.
func (a *archive) find(id, fileName string) *zip.File {
	if fileName != "" {
		if f, ok := a.byName[fileName]; ok {
			return f
		}
	}
	for _, f := range a.files {
		if strings.Contains(f.Name, id) || (fileName != "" && strings.Contains(f.Name, fileName)) {
			return f
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, maxEntrySize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("entry %s is empty", f.Name)
	}
	return data, nil
}
