// Package output renders matrices and mapped points for the CLI and logs.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
)

// Format selects an output encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
	CSV  Format = "csv"
)

// Formats lists every supported format.
var Formats = []Format{Text, JSON, YAML, CSV}

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, known := range Formats {
		names[i] = string(known)
	}
	return "", fmt.Errorf("invalid output format: %s (must be one of: %s)", s, strings.Join(names, ", "))
}

// Options controls rendering.
type Options struct {
	Format    Format
	Precision int
	// Language drives digit grouping and the decimal separator in text output.
	Language language.Tag
}

// DefaultOptions prints text with six decimals in English notation.
func DefaultOptions() Options {
	return Options{Format: Text, Precision: 6, Language: language.English}
}

// MatrixReport is the structured form of a homography.
type MatrixReport struct {
	ColumnMajor [16]float64 `json:"column_major" yaml:"column_major"`
	RowMajor    [16]float64 `json:"row_major" yaml:"row_major"`
	H3          [9]float64  `json:"h3" yaml:"h3"`
}

// NewMatrixReport builds a report for m.
func NewMatrixReport(m homography.Matrix4) MatrixReport {
	return MatrixReport{ColumnMajor: m, RowMajor: m.RowMajor(), H3: m.H3()}
}

// Mapping pairs an input point with its image, or the reason it has none.
type Mapping struct {
	Input  homography.Point  `json:"input" yaml:"input"`
	Output *homography.Point `json:"output,omitempty" yaml:"output,omitempty"`
	Error  string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// WriteMatrix writes m in the requested format.
func WriteMatrix(w io.Writer, m homography.Matrix4, opts Options) error {
	s, err := MatrixString(m, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// WritePoints writes mappings in the requested format.
func WritePoints(w io.Writer, maps []Mapping, opts Options) error {
	s, err := PointsString(maps, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// MatrixString renders m. Text prints the 4x4 matrix row by row.
func MatrixString(m homography.Matrix4, opts Options) (string, error) {
	switch opts.Format {
	case JSON:
		return toJSON(NewMatrixReport(m))
	case YAML:
		return toYAML(NewMatrixReport(m))
	case CSV:
		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		_ = cw.Write([]string{"row", "c0", "c1", "c2", "c3"})
		for r := range 4 {
			row := []string{strconv.Itoa(r)}
			for c := range 4 {
				row = append(row, strconv.FormatFloat(m.At(r, c), 'g', -1, 64))
			}
			_ = cw.Write(row)
		}
		cw.Flush()
		return buf.String(), cw.Error()
	case Text, "":
		p := printer(opts)
		var b strings.Builder
		for r := range 4 {
			cells := make([]string, 4)
			for c := range 4 {
				cells[c] = p.number(m.At(r, c))
			}
			b.WriteString("[ " + strings.Join(cells, "  ") + " ]\n")
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

// PointsString renders mappings, one per line in text and CSV.
func PointsString(maps []Mapping, opts Options) (string, error) {
	switch opts.Format {
	case JSON:
		if maps == nil {
			maps = []Mapping{}
		}
		return toJSON(maps)
	case YAML:
		return toYAML(maps)
	case CSV:
		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		_ = cw.Write([]string{"x", "y", "z", "out_x", "out_y", "out_z", "error"})
		for _, mp := range maps {
			row := []string{fmtG(mp.Input.X), fmtG(mp.Input.Y), fmtG(mp.Input.Z), "", "", "", mp.Error}
			if mp.Output != nil {
				row[3], row[4], row[5] = fmtG(mp.Output.X), fmtG(mp.Output.Y), fmtG(mp.Output.Z)
			}
			_ = cw.Write(row)
		}
		cw.Flush()
		return buf.String(), cw.Error()
	case Text, "":
		p := printer(opts)
		var b strings.Builder
		for _, mp := range maps {
			b.WriteString("(" + p.point(mp.Input) + ") -> ")
			if mp.Output != nil {
				b.WriteString("(" + p.point(*mp.Output) + ")")
			} else {
				b.WriteString("error: " + mp.Error)
			}
			b.WriteByte('\n')
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

// WriteValue writes any value as JSON or YAML. Text and CSV need a
// dedicated renderer and are rejected.
func WriteValue(w io.Writer, v any, f Format) error {
	var s string
	var err error
	switch f {
	case JSON:
		s, err = toJSON(v)
	case YAML:
		s, err = toYAML(v)
	default:
		return fmt.Errorf("unsupported format for structured output: %s", f)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

type numberPrinter struct {
	p    *message.Printer
	prec int
}

func printer(opts Options) numberPrinter {
	tag := opts.Language
	if tag == language.Und {
		tag = language.English
	}
	prec := opts.Precision
	if prec < 0 {
		prec = 0
	}
	return numberPrinter{p: message.NewPrinter(tag), prec: prec}
}

func (n numberPrinter) number(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return n.p.Sprintf("%.*f", n.prec, v)
}

func (n numberPrinter) point(pt homography.Point) string {
	s := n.number(pt.X) + "; " + n.number(pt.Y)
	if pt.Z != 0 {
		s += "; " + n.number(pt.Z)
	}
	return s
}

func fmtG(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func toJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func toYAML(v any) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
