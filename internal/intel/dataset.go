package intel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Column names of the reference CSV files.
const (
	colMunicipality       = "NOM_MUN"
	colServiceCategory    = "CATEGORIA"
	colShortageIndex      = "INDICE_DESABASTO"
	colSecurityCategory   = "CATEGORIA_SEGURIDAD"
	colIsolatedBusinesses = "NEGOCIOS_AISLADOS"
)

// ServiceRow is one municipality of the service-shortage dataset.
type ServiceRow struct {
	Municipality  string
	Category      string
	ShortageIndex float64
}

// SecurityRow is one municipality of the security dataset.
type SecurityRow struct {
	Municipality       string
	Category           string
	IsolatedBusinesses int
}

// Table is a read-only, name-keyed reference table. Names keep file order
// and contain each municipality once; the first row wins on duplicates.
type Table[R any] struct {
	names []string
	rows  map[string]R
}

func NewTable[R any](rows []R, name func(R) string) *Table[R] {
	t := &Table[R]{rows: make(map[string]R, len(rows))}
	for _, r := range rows {
		n := name(r)
		if _, dup := t.rows[n]; dup {
			continue
		}
		t.rows[n] = r
		t.names = append(t.names, n)
	}
	return t
}

// Names returns the canonical municipality names.
func (t *Table[R]) Names() []string {
	return t.names
}

// Get is an exact lookup by canonical name.
func (t *Table[R]) Get(name string) (R, bool) {
	r, ok := t.rows[name]
	return r, ok
}

func (t *Table[R]) Len() int {
	return len(t.names)
}

// openCSV returns a reader decoding the file from encoding ("utf-8" or
// "latin-1"/"iso-8859-1").
func openCSV(path, encoding string) (*csv.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	var src io.Reader = f
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
	case "latin-1", "latin1", "iso-8859-1":
		src = charmap.ISO8859_1.NewDecoder().Reader(f)
	case "windows-1252", "cp1252":
		src = charmap.Windows1252.NewDecoder().Reader(f)
	default:
		_ = f.Close()
		return nil, nil, fmt.Errorf("unsupported csv encoding %q", encoding)
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r, f, nil
}

// readRecords reads the header and returns each data row as column -> value.
func readRecords(r *csv.Reader, required ...string) ([]map[string]string, error) {
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv missing column %s", col)
		}
	}

	var out []map[string]string
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		row := make(map[string]string, len(required))
		for _, col := range required {
			if i := index[col]; i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// LoadServiceTable reads the service-shortage CSV.
func LoadServiceTable(path, encoding string) (*Table[ServiceRow], error) {
	r, closer, err := openCSV(path, encoding)
	if err != nil {
		return nil, fmt.Errorf("open services dataset: %w", err)
	}
	defer closer.Close()

	records, err := readRecords(r, colMunicipality, colServiceCategory, colShortageIndex)
	if err != nil {
		return nil, fmt.Errorf("services dataset %s: %w", path, err)
	}
	rows := make([]ServiceRow, 0, len(records))
	for _, rec := range records {
		if rec[colMunicipality] == "" {
			continue
		}
		idx, _ := strconv.ParseFloat(rec[colShortageIndex], 64)
		rows = append(rows, ServiceRow{
			Municipality:  rec[colMunicipality],
			Category:      rec[colServiceCategory],
			ShortageIndex: idx,
		})
	}
	return NewTable(rows, func(r ServiceRow) string { return r.Municipality }), nil
}

// LoadSecurityTable reads the security CSV.
func LoadSecurityTable(path, encoding string) (*Table[SecurityRow], error) {
	r, closer, err := openCSV(path, encoding)
	if err != nil {
		return nil, fmt.Errorf("open security dataset: %w", err)
	}
	defer closer.Close()

	records, err := readRecords(r, colMunicipality, colSecurityCategory, colIsolatedBusinesses)
	if err != nil {
		return nil, fmt.Errorf("security dataset %s: %w", path, err)
	}
	rows := make([]SecurityRow, 0, len(records))
	for _, rec := range records {
		if rec[colMunicipality] == "" {
			continue
		}
		n, _ := strconv.ParseFloat(rec[colIsolatedBusinesses], 64)
		rows = append(rows, SecurityRow{
			Municipality:       rec[colMunicipality],
			Category:           rec[colSecurityCategory],
			IsolatedBusinesses: int(n),
		})
	}
	return NewTable(rows, func(r SecurityRow) string { return r.Municipality }), nil
}
