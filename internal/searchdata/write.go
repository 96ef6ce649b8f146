package searchdata

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// IndexVersion is the layout version recorded in index manifests.
const IndexVersion = indexVersion

const (
	indexVersion  = 1
	manifestFile  = "index_manifest.json"
	sectionsFile  = "searchdata.js"
	sectionPrefix = "all_"
)

// ManifestFile and SectionsFile name the fixed files WriteDir produces.
const (
	ManifestFile = manifestFile
	SectionsFile = sectionsFile
)

// WriteJS writes the index as a single doxygen searchData assignment.
func (idx *Index) WriteJS(w io.Writer) error {
	return writeEntries(w, idx.Entries)
}

func writeEntries(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("var searchData=\n[\n")
	for i, e := range entries {
		bw.WriteString("  [")
		bw.WriteString(jsString(e.Key))
		bw.WriteString(",[")
		bw.WriteString(jsString(EscapeHTML(e.Label)))
		for _, o := range e.Occurrences {
			bw.WriteString(",[")
			bw.WriteString(jsString(o.URL))
			if o.Local {
				bw.WriteString(",1,")
			} else {
				bw.WriteString(",0,")
			}
			bw.WriteString(jsString(EscapeHTML(o.Owner)))
			bw.WriteString("]")
		}
		bw.WriteString("]]")
		if i < len(entries)-1 {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
	}
	bw.WriteString("];\n")
	return bw.Flush()
}

// Sections returns the distinct leading key bytes in ascending order.
func (idx *Index) Sections() string {
	var s []byte
	for _, e := range idx.Entries {
		if e.Key != "" && bytes.IndexByte(s, e.Key[0]) < 0 {
			s = append(s, e.Key[0])
		}
	}
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return string(s)
}

// SectionFile returns the file name holding entries whose key starts with
// the n-th section character.
func SectionFile(n int) string {
	return sectionPrefix + strconv.FormatInt(int64(n), 16) + ".js"
}

// WriteDir writes the index split by leading key character, the searchdata.js
// section table and an index manifest into dir.
func WriteDir(dir string, idx *Index, m Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}

	sections := idx.Sections()
	files := make(map[string]string, len(sections)+1)
	write := func(name string, render func(io.Writer) error) error {
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", name, err)
		}
		sum := sha256.Sum256(buf.Bytes())
		files[name] = hex.EncodeToString(sum[:])
		return nil
	}

	for n := 0; n < len(sections); n++ {
		c := sections[n]
		var part []Entry
		for _, e := range idx.Entries {
			if e.Key != "" && e.Key[0] == c {
				part = append(part, e)
			}
		}
		if err := write(SectionFile(n), func(w io.Writer) error { return writeEntries(w, part) }); err != nil {
			return err
		}
	}
	if err := write(sectionsFile, func(w io.Writer) error { return writeSections(w, sections) }); err != nil {
		return err
	}

	m.IndexVersion = indexVersion
	m.Entries = len(idx.Entries)
	m.Sections = sections
	m.Files = files
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), append(mb, '\n'), 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	return nil
}

func writeSections(w io.Writer, sections string) error {
	_, err := fmt.Fprintf(w, "var indexSectionsWithContent =\n{\n  0: %s\n};\n\n"+
		"var indexSectionNames =\n{\n  0: \"all\"\n};\n\n"+
		"var indexSectionLabels =\n{\n  0: \"All\"\n};\n\n",
		strconv.Quote(sections))
	return err
}

// WriteFile writes the index as one searchData file, replacing path atomically.
func WriteFile(path string, idx *Index) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".searchdata-*.js")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := idx.WriteJS(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cannot write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return ReplaceFile(tmp.Name(), path)
}
