// Package tsv reads the tab-separated bank export files fed to the importer.
// The format is deliberately primitive: first line is the header, one record
// per line, a single tab as delimiter, no quoting or escape handling. A
// literal tab inside a field is not supported.
package tsv

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"avolkov/finaudit/internal/parsererror"
)

// Delimiter is the only cell separator the reader understands.
const Delimiter = '\t'

// cutset removed from both ends of a cell before use: whitespace and the
// double quotes some bank exports wrap values in.
const cutset = " \t\n\r\""

// File is an open TSV file positioned at its first data row. The row
// sequence is forward-only; restarting requires reopening the file.
type File struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	header  []string
	rows    int
}

// Open opens the file, counts its data rows (for progress reporting) and
// reads the header line. The returned File is ready for Next calls.
func Open(path string) (*File, error) {
	rows, err := countDataRows(path)
	if err != nil {
		return nil, &parsererror.FileError{FilePath: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &parsererror.FileError{FilePath: path, Err: err}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header []string
	if scanner.Scan() {
		header = Split(scanner.Text())
	}

	return &File{
		path:    path,
		file:    f,
		scanner: scanner,
		header:  header,
		rows:    rows,
	}, nil
}

// Header returns the delimiter-split first line. Header names are
// informational only; nothing is parsed out of them.
func (f *File) Header() []string {
	return f.header
}

// TotalRows returns the number of data lines in the file, blank lines
// included, so progress can be reported against a fixed denominator.
func (f *File) TotalRows() int {
	return f.rows
}

// Next returns the next raw data line. ok is false once the file is
// exhausted. Blank lines are returned as empty strings; the caller decides
// whether to skip them (the import driver counts them toward progress).
func (f *File) Next() (line string, ok bool) {
	if !f.scanner.Scan() {
		return "", false
	}
	return f.scanner.Text(), true
}

// Close releases the underlying file handle.
func (f *File) Close() error {
	return f.file.Close()
}

// Split cuts a line into raw cells on the tab delimiter. Cells are not
// cleaned here; CleanCell is applied at field-resolution time.
func Split(line string) []string {
	return strings.Split(line, string(Delimiter))
}

// CleanCell trims surrounding whitespace and double quotes from a cell.
func CleanCell(cell string) string {
	return strings.Trim(cell, cutset)
}

// Preview reads the header and up to maxRows data rows for interactive
// column mapping. A file shorter than maxRows is not an error.
func Preview(path string, maxRows int) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &parsererror.FileError{FilePath: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if scanner.Scan() {
		header = Split(scanner.Text())
	}

	for len(rows) < maxRows && scanner.Scan() {
		rows = append(rows, Split(scanner.Text()))
	}

	return header, rows, scanner.Err()
}

// countDataRows counts newline-terminated lines after the header.
func countDataRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	lines := 0
	buf := make([]byte, 64*1024)
	lastByte := byte('\n')
	for {
		n, err := f.Read(buf)
		if n > 0 {
			lines += bytes.Count(buf[:n], []byte{'\n'})
			lastByte = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	// A final line without a trailing newline still counts.
	if lastByte != '\n' {
		lines++
	}
	if lines == 0 {
		return 0, nil
	}
	return lines - 1, nil // minus the header line
}
