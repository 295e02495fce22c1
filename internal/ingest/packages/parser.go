package packages

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/meltforce/fittracker/internal/models"
	"gopkg.in/yaml.v3"
)

// Format selects the package file encoding.
type Format string

const (
	FormatLines Format = "lines"
	FormatYAML  Format = "yaml"
)

// packageLineRe matches: RUN;15000;1;75 (";" or "," separated). A bare code
// is accepted and left to dispatch to reject for its argument count.
var packageLineRe = regexp.MustCompile(`^([A-Za-z]+)(?:\s*[;,]\s*(.*))?$`)

// Default returns the sample packages reported by the sensor block in a
// standalone run.
func Default() []models.Package {
	return []models.Package{
		{Code: "SWM", Data: []float64{720, 1, 80, 25, 40}},
		{Code: "RUN", Data: []float64{15000, 1, 75}},
		{Code: "WLK", Data: []float64{9000, 1, 75, 180}},
	}
}

// Load reads a package file, choosing the format from its extension.
func Load(path string) ([]models.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening package file: %w", err)
	}
	defer f.Close()

	format := FormatLines
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	pkgs, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return pkgs, nil
}

// Parse reads packages from r in the given format. A line that cannot be
// decoded yields a Package with Err set so the rest of the input survives;
// the returned error covers only unreadable input.
func Parse(r io.Reader, format Format) ([]models.Package, error) {
	switch format {
	case FormatYAML:
		return parseYAML(r)
	case FormatLines, "":
		return parseLines(r)
	default:
		return nil, fmt.Errorf("unknown package format %q", format)
	}
}

func parseYAML(r io.Reader) ([]models.Package, error) {
	var pkgs []models.Package
	if err := yaml.NewDecoder(r).Decode(&pkgs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	for i := range pkgs {
		if pkgs[i].Code == "" {
			pkgs[i].Err = fmt.Errorf("package %d: missing code", i+1)
		}
	}
	return pkgs, nil
}

func parseLines(r io.Reader) ([]models.Package, error) {
	scanner := bufio.NewScanner(r)
	var pkgs []models.Package
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Blank lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pkgs = append(pkgs, parseLine(lineNo, line))
	}

	return pkgs, scanner.Err()
}

func parseLine(lineNo int, line string) models.Package {
	m := packageLineRe.FindStringSubmatch(line)
	if m == nil {
		code, _, _ := strings.Cut(line, ";")
		return models.Package{
			Code: strings.TrimSpace(code),
			Err:  fmt.Errorf("line %d: malformed package %q", lineNo, line),
		}
	}

	fields := strings.FieldsFunc(m[2], func(r rune) bool { return r == ';' || r == ',' })
	data := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return models.Package{
				Code: m[1],
				Err:  fmt.Errorf("line %d: value %q: %w", lineNo, strings.TrimSpace(field), err),
			}
		}
		data = append(data, v)
	}
	return models.Package{Code: m[1], Data: data}
}

// Bad returns the packages that failed to decode.
func Bad(pkgs []models.Package) []models.Package {
	var bad []models.Package
	for _, p := range pkgs {
		if p.Err != nil {
			bad = append(bad, p)
		}
	}
	return bad
}

// Encode writes pkgs in the line format accepted by Parse. Packages that
// failed to decode are skipped.
func Encode(w io.Writer, pkgs []models.Package) error {
	for _, p := range pkgs {
		if p.Err != nil {
			continue
		}
		fields := make([]string, 0, len(p.Data)+1)
		fields = append(fields, p.Code)
		for _, v := range p.Data {
			fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, ";")); err != nil {
			return err
		}
	}
	return nil
}
