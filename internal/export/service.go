package export

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"georegistry/internal/domain"
	"georegistry/internal/versioning"
)

const historySheet = "History"

// Service renders the full version history of a record as a spreadsheet, one
// row per version with the union of field columns across all snapshots.
type Service struct {
	snapshots *versioning.Snapshots
}

// NewService creates the export service.
func NewService(snapshots *versioning.Snapshots) *Service {
	return &Service{snapshots: snapshots}
}

// BuildWorkbook assembles the history workbook for one record. The caller
// owns the returned file and must close it.
func (s *Service) BuildWorkbook(ctx context.Context, kind domain.Kind, recordID uuid.UUID) (*excelize.File, error) {
	snapshots, err := s.snapshots.List(ctx, kind, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s/%s: %w", kind, recordID, err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no history for %s/%s", kind, recordID)
	}

	datas := make([]map[string]any, len(snapshots))
	for i, snapshot := range snapshots {
		if datas[i], err = snapshot.Data(); err != nil {
			return nil, err
		}
	}
	columns := fieldColumns(datas)

	file := excelize.NewFile()
	file.SetSheetName(file.GetSheetName(0), historySheet)

	header := append([]string{"version", "recorded_at"}, columns...)
	if err := writeRow(file, 1, toCells(header)); err != nil {
		return nil, err
	}

	for i, snapshot := range snapshots {
		cells := make([]any, 0, len(header))
		cells = append(cells, snapshot.Sequential, snapshot.CreatedAt.UTC().Format(time.RFC3339))
		for _, column := range columns {
			cells = append(cells, formatValue(datas[i][column]))
		}
		if err := writeRow(file, i+2, cells); err != nil {
			return nil, err
		}
	}

	return file, nil
}

// fieldColumns returns the sorted union of non-meta field keys.
func fieldColumns(datas []map[string]any) []string {
	meta := make(map[string]struct{}, len(domain.MetaFieldNames))
	for _, name := range domain.MetaFieldNames {
		meta[name] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, data := range datas {
		for key := range data {
			if _, isMeta := meta[key]; isMeta {
				continue
			}
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

func writeRow(file *excelize.File, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := file.SetSheetRow(historySheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, value := range values {
		cells[i] = value
	}
	return cells
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float32, float64, int, int32, int64:
		return fmt.Sprintf("%v", v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
