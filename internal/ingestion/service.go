package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"georegistry/internal/auth"
	"georegistry/internal/domain"
	"georegistry/internal/repository"
	"georegistry/internal/versioning"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Service ingests tabular municipality data. Rows are keyed by insee code:
// unknown codes create municipalities, known codes update them when any
// tracked column changed. Bulk runs are expected to use a controller with
// diff recording disabled.
type Service struct {
	controller *versioning.Controller
	records    repository.RecordRepository
	logger     *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(controller *versioning.Controller, records repository.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{controller: controller, records: records, logger: logger}
}

// Request describes the ingestion input.
type Request struct {
	FileName string
	Data     io.Reader
	Session  *auth.Session
}

// Summary returns ingestion level metrics.
type Summary struct {
	TotalRows   int `json:"totalRows"`
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	InvalidRows int `json:"invalidRows"`
}

type tableData struct {
	headers []string
	rows    [][]string
}

// ImportMunicipalities reads the uploaded file and persists each row through
// the versioning pipeline.
func (s *Service) ImportMunicipalities(ctx context.Context, req Request) (Summary, error) {
	var summary Summary

	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}
	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}

	columns := make(map[string]int, len(table.headers))
	for idx, header := range table.headers {
		columns[header] = idx
	}
	for _, required := range []string{"insee", "name"} {
		if _, ok := columns[required]; !ok {
			return summary, fmt.Errorf("missing required column %q", required)
		}
	}

	summary.TotalRows = len(table.rows)
	for rowIdx, row := range table.rows {
		outcome, err := s.importRow(ctx, columns, row, req.Session)
		if err != nil {
			summary.InvalidRows++
			s.logger.Warn("skipping municipality row",
				"file", req.FileName, "row", rowIdx+2, "error", err)
			continue
		}
		switch outcome {
		case rowCreated:
			summary.Created++
		case rowUpdated:
			summary.Updated++
		case rowUnchanged:
			summary.Unchanged++
		}
	}

	return summary, nil
}

type rowOutcome int

const (
	rowCreated rowOutcome = iota
	rowUpdated
	rowUnchanged
)

func (s *Service) importRow(ctx context.Context, columns map[string]int, row []string, session *auth.Session) (rowOutcome, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	insee := cell("insee")
	name := cell("name")
	if insee == "" {
		return 0, errors.New("empty insee code")
	}
	if name == "" {
		return 0, errors.New("empty name")
	}
	siren := cell("siren")
	alias := splitAlias(cell("alias"))

	existing, err := s.records.GetByField(ctx, domain.KindMunicipality, "insee", insee)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("failed to look up insee %s: %w", insee, err)
		}
		municipality := domain.NewMunicipality(name, insee, siren, alias...)
		if err := s.controller.Save(ctx, municipality, session); err != nil {
			return 0, err
		}
		return rowCreated, nil
	}

	municipality, ok := existing.(*domain.Municipality)
	if !ok {
		return 0, fmt.Errorf("record for insee %s is not a municipality", insee)
	}
	if municipality.Name == name && municipality.SIREN == siren && equalAlias(municipality.Alias, alias) {
		return rowUnchanged, nil
	}

	meta := municipality.RecordMeta()
	meta.Lock(meta.Version)
	municipality.Name = name
	municipality.SIREN = siren
	municipality.Alias = alias
	meta.Bump()
	if err := s.controller.Save(ctx, municipality, session); err != nil {
		return 0, err
	}
	return rowUpdated, nil
}

func splitAlias(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	alias := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			alias = append(alias, trimmed)
		}
	}
	if len(alias) == 0 {
		return nil
	}
	return alias
}

func equalAlias(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	headers := make([]string, len(records[0]))
	for i, value := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(value))
	}

	var rows [][]string
	for _, row := range records[1:] {
		keep := false
		for _, value := range row {
			if strings.TrimSpace(value) != "" {
				keep = true
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}

	return tableData{headers: headers, rows: rows}, nil
}
