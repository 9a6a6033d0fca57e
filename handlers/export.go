package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet     = "Report"
)

// sheet is a titled table written to a single worksheet.
type sheet struct {
	title   string
	headers []string
	rows    [][]any
}

// buildWorkbook lays out the title in A1, the generation time in A2 and the table from row 4.
func buildWorkbook(s sheet, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4E7D3A"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetCellValue(exportSheet, "A1", s.title); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(exportSheet, "A1", "A1", titleStyle)
	_ = f.SetRowHeight(exportSheet, 1, 30)
	_ = f.SetCellValue(exportSheet, "A2", "Generated: "+generated.Format("2006-01-02 15:04:05"))

	for col, header := range s.headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 4)
		_ = f.SetCellValue(exportSheet, cell, header)
		_ = f.SetCellStyle(exportSheet, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(col + 1)
		_ = f.SetColWidth(exportSheet, name, name, 22)
	}
	for r, row := range s.rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+5)
			if t, ok := value.(time.Time); ok {
				value = t.Format("2006-01-02 15:04:05")
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}

func (h *Handler) writeWorkbook(w http.ResponseWriter, r *http.Request, filename string, s sheet) {
	f, err := buildWorkbook(s, time.Now())
	if err != nil {
		h.fail(w, r, fmt.Errorf("build %s: %w", filename, err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := f.WriteTo(w); err != nil {
		h.log.Warn("export write failed", zap.String("file", filename), zap.Error(err))
	}
}

// ExportIrrigationEvents downloads the events of the last ?days as xlsx
// @Summary Export irrigation events
// @Tags irrigation
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param days query int false "Window in days (max 366)" default(7)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/irrigation/events/export [get]
func (h *Handler) ExportIrrigationEvents(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	events, err := h.svc.Irrigation.Events(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	s := sheet{
		title:   fmt.Sprintf("Irrigation events, last %d days", days),
		headers: []string{"Started", "Ended", "Trigger", "Duration (min)", "Water (L)", "Zones"},
	}
	for _, e := range events {
		var ended any = ""
		if e.EndedAt != nil {
			ended = *e.EndedAt
		}
		s.rows = append(s.rows, []any{
			e.StartedAt, ended, string(e.Trigger), e.Duration, e.WaterVolume, strings.Join(e.Zones, ", "),
		})
	}
	h.writeWorkbook(w, r, "irrigation-events.xlsx", s)
}

// @Summary Export sensor readings
// @Tags sensors
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Sensor ID"
// @Param hours query int false "Window in hours (max 8784)" default(24)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sensors/{id}/readings/export [get]
func (h *Handler) ExportSensorReadings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	hours, err := queryInt(r, "hours", 24)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sensor, err := h.svc.Sensors.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	readings, err := h.svc.Sensors.Readings(r.Context(), id, hours)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	s := sheet{
		title:   fmt.Sprintf("%s, last %d hours", sensor.Name, hours),
		headers: []string{"Timestamp", "Value (" + sensor.Unit + ")"},
	}
	for _, reading := range readings {
		s.rows = append(s.rows, []any{reading.Timestamp, reading.Value})
	}
	h.writeWorkbook(w, r, "sensor-readings.xlsx", s)
}
