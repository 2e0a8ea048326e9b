package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"roomly/internal/config"
	"roomly/internal/domain"
	"roomly/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders an occupancy workbook: one row per room from the
// catalog, one column per day, reservation windows in the cells.
type Exporter struct {
	store  domain.ReservationStore
	rooms  []config.RoomConfig
	path   string
	logger *zerolog.Logger
}

func NewExporter(store domain.ReservationStore, rooms []config.RoomConfig, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		rooms:  rooms,
		path:   path,
		logger: logger,
	}
}

// ExportRange writes the workbook for [startDate, endDate] and returns its
// path. File names carry a random suffix so concurrent exports never
// clobber each other.
func (e *Exporter) ExportRange(ctx context.Context, startDate, endDate string) (string, error) {
	start, err := time.Parse(models.DateLayout, startDate)
	if err != nil {
		return "", fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(models.DateLayout, endDate)
	if err != nil {
		return "", fmt.Errorf("invalid end date: %w", err)
	}
	if end.Before(start) {
		return "", fmt.Errorf("end date is before start date")
	}

	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	reservations, err := e.store.ListByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting reservations: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reservations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s", startDate, endDate))

	dateCols := e.writeDateHeaders(f, sheetName, start, end)
	e.writeRoomRows(f, sheetName)
	e.writeReservationCells(f, sheetName, reservations, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 30)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 22)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reservations_%s_to_%s_%s.xlsx", startDate, endDate, uuid.NewString()[:8])
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("reservations", len(reservations)).Msg("export created")
	return filePath, nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, sheetName string, start, end time.Time) map[string]int {
	col := 2
	dateCols := make(map[string]int)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, d.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		dateCols[d.Format(models.DateLayout)] = col
		col++
	}
	return dateCols
}

func (e *Exporter) writeRoomRows(f *excelize.File, sheetName string) {
	row := 3
	for _, room := range e.rooms {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s / %s / %s", room.Building, room.Floor, room.Name))
		row++
	}
}

func (e *Exporter) roomRow(building, floor, room string) (int, bool) {
	for i, r := range e.rooms {
		if r.Building == building && r.Floor == floor && r.Name == room {
			return 3 + i, true
		}
	}
	return 0, false
}

func (e *Exporter) writeReservationCells(f *excelize.File, sheetName string, reservations []*models.Reservation, dateCols map[string]int) {
	for _, r := range reservations {
		row, ok := e.roomRow(r.Building, r.Floor, r.Room)
		if !ok {
			// Reservation for a room no longer in the catalog; skip.
			continue
		}
		for _, date := range r.Dates() {
			col, ok := dateCols[date]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col, row)
			existing, _ := f.GetCellValue(sheetName, cell)
			entry := fmt.Sprintf("%s-%s %s", r.StartTime, r.EndTime, r.ReservationName)
			if existing != "" {
				entry = existing + "\n" + entry
			}
			_ = f.SetCellValue(sheetName, cell, entry)
		}
	}
}
