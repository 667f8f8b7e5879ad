package svpkg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

var (
	packageLine = regexp.MustCompile(`^package (\w+);$`)
	declLine    = regexp.MustCompile(`^const logic \[(\d+):0\] (\w+) \[(\d+)\]= '\{$`)
	entryLine   = regexp.MustCompile(`^(\d+)'h([0-9A-F]+)(,?)$`)
)

// maxPrealloc bounds the capacity reserved from a declared table size
const maxPrealloc = 1 << 17

// Package is a decoded lookup table package
type Package struct {
	Layout
	Values []uint32
}

// lineReader numbers lines for error messages
type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

func (r *lineReader) next() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("line %d: %w", r.line+1, io.ErrUnexpectedEOF)
	}
	r.line++
	return r.scanner.Text(), nil
}

func (r *lineReader) expect(want string) error {
	got, err := r.next()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("line %d: got %q, want %q", r.line, got, want)
	}
	return nil
}

// Decode parses a package produced by Encode. It accepts only the line
// layout Encode writes, so a successful decode means the text is well formed.
func Decode(r io.Reader) (*Package, error) {
	lr := &lineReader{scanner: bufio.NewScanner(r)}

	line, err := lr.next()
	if err != nil {
		return nil, err
	}
	m := packageLine.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("line %d: invalid package header %q", lr.line, line)
	}
	pkg := &Package{Layout: Layout{PackageName: m[1]}}

	if err := lr.expect(""); err != nil {
		return nil, err
	}

	line, err = lr.next()
	if err != nil {
		return nil, err
	}
	m = declLine.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("line %d: invalid table declaration %q", lr.line, line)
	}
	msb, err := strconv.Atoi(m[1])
	if err != nil || msb > 31 {
		return nil, fmt.Errorf("line %d: unsupported entry range [%s:0]", lr.line, m[1])
	}
	pkg.Width = msb + 1
	pkg.TableName = m[2]
	size, err := strconv.Atoi(m[3])
	if err != nil || size < 1 {
		return nil, fmt.Errorf("line %d: invalid table size %q", lr.line, m[3])
	}

	widthPrefix := strconv.Itoa(pkg.Width)
	digits := pkg.hexDigits()
	pkg.Values = make([]uint32, 0, min(size, maxPrealloc))
	for i := 0; i < size; i++ {
		line, err := lr.next()
		if err != nil {
			return nil, err
		}
		m := entryLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: invalid entry %q", lr.line, line)
		}
		if m[1] != widthPrefix || len(m[2]) != digits {
			return nil, fmt.Errorf("line %d: entry %q does not match width %d", lr.line, line, pkg.Width)
		}
		last := i == size-1
		if hasComma := m[3] == ","; hasComma == last {
			return nil, fmt.Errorf("line %d: misplaced separator in entry %d of %d", lr.line, i, size)
		}
		v, err := strconv.ParseUint(m[2], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lr.line, err)
		}
		if pkg.Width < 32 && v >= 1<<pkg.Width {
			return nil, fmt.Errorf("line %d: value %d does not fit in %d bits", lr.line, v, pkg.Width)
		}
		pkg.Values = append(pkg.Values, uint32(v))
	}

	for _, want := range []string{"};", "", "endpackage"} {
		if err := lr.expect(want); err != nil {
			return nil, err
		}
	}

	if lr.scanner.Scan() {
		return nil, fmt.Errorf("line %d: unexpected content after endpackage", lr.line+1)
	}
	if err := lr.scanner.Err(); err != nil {
		return nil, err
	}

	return pkg, nil
}

// ReadFile decodes the package stored at path
func ReadFile(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	pkg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return pkg, nil
}

// ErrMismatch is returned by Verify when a decoded table differs from the expected values
var ErrMismatch = errors.New("table mismatch")

// Verify checks that pkg holds exactly the given layout and values
func Verify(pkg *Package, layout Layout, values []uint32) error {
	if pkg.Layout != layout {
		return fmt.Errorf("%w: layout %+v, want %+v", ErrMismatch, pkg.Layout, layout)
	}
	if len(pkg.Values) != len(values) {
		return fmt.Errorf("%w: %d entries, want %d", ErrMismatch, len(pkg.Values), len(values))
	}
	for i := range values {
		if pkg.Values[i] != values[i] {
			return fmt.Errorf("%w: entry %d = %d, want %d", ErrMismatch, i, pkg.Values[i], values[i])
		}
	}
	return nil
}
