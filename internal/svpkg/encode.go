// Package svpkg reads and writes lookup tables as SystemVerilog packages
// holding a single constant unpacked array of fixed-width values.
package svpkg

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/kula-app/sigmoid-lut/internal/config"
)

// Layout describes the identifiers and entry width of a generated package
type Layout struct {
	PackageName string
	TableName   string
	Width       int
}

// LayoutFromConfig returns the package layout configured for the generator
func LayoutFromConfig(cfg *config.Config) Layout {
	return Layout{
		PackageName: cfg.PackageName,
		TableName:   cfg.TableName,
		Width:       cfg.Width,
	}
}

// hexDigits is the number of hex digits needed for one entry
func (l Layout) hexDigits() int {
	return (l.Width + 3) / 4
}

// Encode writes values as a SystemVerilog package:
//
//	package <name>;
//
//	const logic [W-1:0] <table> [N]= '{
//	W'hXX,
//	...
//	W'hXX
//	};
//
//	endpackage
func Encode(w io.Writer, layout Layout, values []uint32) error {
	if err := check(layout, values); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "package %s;\n\n", layout.PackageName)
	fmt.Fprintf(bw, "const logic [%d:0] %s [%d]", layout.Width-1, layout.TableName, len(values))
	bw.WriteString("= '{\n")

	digits := layout.hexDigits()
	last := len(values) - 1
	for i, v := range values {
		sep := ",\n"
		if i == last {
			sep = "\n"
		}
		fmt.Fprintf(bw, "%d'h%0*X%s", layout.Width, digits, v, sep)
	}

	bw.WriteString("};\n\nendpackage\n")

	// bufio.Writer keeps the first write error, Flush reports it
	return bw.Flush()
}

// check rejects tables that cannot be encoded with layout
func check(layout Layout, values []uint32) error {
	if len(values) == 0 {
		return fmt.Errorf("cannot encode empty table %s", layout.TableName)
	}
	if layout.Width < 1 || layout.Width > 32 {
		return fmt.Errorf("unsupported entry width %d", layout.Width)
	}
	if layout.Width < 32 {
		for i, v := range values {
			if v >= 1<<layout.Width {
				return fmt.Errorf("entry %d value %d does not fit in %d bits", i, v, layout.Width)
			}
		}
	}
	return nil
}

// countingWriter tracks the number of bytes written through it
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteFile encodes values into the file at path, truncating any existing file.
// It returns the number of bytes written. The file is closed on every path.
// A table that cannot be encoded is rejected before the file is created.
// After a write failure the file may be incomplete and must not be used.
func WriteFile(path string, layout Layout, values []uint32) (n int64, err error) {
	if err := check(layout, values); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	cw := &countingWriter{w: f}
	if err := Encode(cw, layout, values); err != nil {
		return cw.n, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return cw.n, nil
}
