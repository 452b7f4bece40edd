package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"neohub_monitor/internal/models"
	"neohub_monitor/internal/view"
)

// Field is an exportable column.
type Field string

const (
	FieldDeviceID     Field = "device_id"
	FieldDeviceName   Field = "device_name"
	FieldDeviceType   Field = "device_type"
	FieldOnline       Field = "online"
	FieldFirmware     Field = "firmware"
	FieldZone         Field = "zone"
	FieldZoneKind     Field = "zone_kind"
	FieldActualTemp   Field = "actual_temp"
	FieldSetTemp      Field = "set_temp"
	FieldHeatOn       Field = "heat_on"
	FieldHeatMode     Field = "heat_mode"
	FieldHumidity     Field = "humidity"
	FieldWindowOpen   Field = "window_open"
	FieldLowBattery   Field = "low_battery"
	FieldBatteryLevel Field = "battery_level"
	FieldTimerOn      Field = "timer_on"
	FieldModulation   Field = "modulation"
	FieldStatus       Field = "status"
)

// AllowedFields is the closed set of exportable fields, in default column order.
var AllowedFields = []Field{
	FieldDeviceID, FieldDeviceName, FieldDeviceType, FieldOnline, FieldFirmware,
	FieldZone, FieldZoneKind, FieldActualTemp, FieldSetTemp, FieldHeatOn, FieldHeatMode,
	FieldHumidity, FieldWindowOpen, FieldLowBattery, FieldBatteryLevel, FieldTimerOn,
	FieldModulation, FieldStatus,
}

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	ErrInvalidField      = errors.New("invalid export field")
	ErrEmptySelection    = errors.New("no export fields selected")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ExportError is returned before any serialization starts.
type ExportError struct {
	Value string
	Err   error
}

func (e *ExportError) Error() string {
	if e.Value == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Value)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ParseFormat resolves a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case "excel":
		return FormatXLSX, nil
	default:
		return "", &ExportError{Value: s, Err: ErrUnsupportedFormat}
	}
}

// ParseFields splits a comma separated field list. Empty input selects AllowedFields.
func ParseFields(list string) ([]Field, error) {
	if strings.TrimSpace(list) == "" {
		return append([]Field(nil), AllowedFields...), nil
	}
	var fields []Field
	for _, part := range strings.Split(list, ",") {
		fields = append(fields, Field(strings.ToLower(strings.TrimSpace(part))))
	}
	return fields, ValidateFields(fields)
}

// ValidateFields rejects empty selections, unknown fields and duplicates.
func ValidateFields(fields []Field) error {
	if len(fields) == 0 {
		return &ExportError{Err: ErrEmptySelection}
	}
	allowed := make(map[Field]bool, len(AllowedFields))
	for _, f := range AllowedFields {
		allowed[f] = true
	}
	seen := make(map[Field]bool, len(fields))
	for _, f := range fields {
		if !allowed[f] || seen[f] {
			return &ExportError{Value: string(f), Err: ErrInvalidField}
		}
		seen[f] = true
	}
	return nil
}

// Export serializes the zones of s in snapshot order.
func Export(s models.Snapshot, fields []Field, format Format) ([]byte, error) {
	return ExportRows(view.Rows(s), fields, format)
}

// ExportRows serializes rows with one column per field, in the given order.
// Status is the indicator set stored on the row; it is never re-derived.
func ExportRows(rows []view.Row, fields []Field, format Format) ([]byte, error) {
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = string(f)
	}
	table := make([][]cell, 0, len(rows))
	for _, r := range rows {
		line := make([]cell, len(fields))
		for i, f := range fields {
			line[i] = value(r, f)
		}
		table = append(table, line)
	}

	switch Format(strings.ToLower(string(format))) {
	case FormatXLSX:
		return writeXLSX(header, table)
	default:
		return writeCSV(header, table)
	}
}

// FileName returns the download name for an export taken at t.
func FileName(format Format, t time.Time) string {
	return fmt.Sprintf("neohub_export_%s.%s", t.UTC().Format("20060102_150405"), format)
}

// ContentType returns the MIME type of format.
func ContentType(format Format) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// cell is a rendered value. Numbers keep their float form so spreadsheets get
// numeric cells; text is what CSV writes for every cell.
type cell struct {
	text   string
	number *float64
}

func textCell(s string) cell { return cell{text: s} }

func numberCell(o models.Optional[float64]) cell {
	v, ok := o.Get()
	if !ok {
		return cell{}
	}
	return cell{text: strconv.FormatFloat(v, 'f', -1, 64), number: &v}
}

func boolCell(b bool) cell { return textCell(strconv.FormatBool(b)) }

func optBoolCell(o models.Optional[bool]) cell {
	v, ok := o.Get()
	if !ok {
		return cell{}
	}
	return boolCell(v)
}

func value(r view.Row, f Field) cell {
	switch f {
	case FieldDeviceID:
		return textCell(r.DeviceID)
	case FieldDeviceName:
		return textCell(r.DeviceName)
	case FieldDeviceType:
		return textCell(string(r.DeviceType))
	case FieldOnline:
		return boolCell(r.Online)
	case FieldFirmware:
		return textCell(r.Firmware)
	case FieldZone:
		return textCell(r.Zone)
	case FieldZoneKind:
		return textCell(string(r.ZoneKind))
	case FieldActualTemp:
		return numberCell(r.ActualTemp)
	case FieldSetTemp:
		return numberCell(r.SetTemp)
	case FieldHeatOn:
		return boolCell(r.HeatOn)
	case FieldHeatMode:
		return textCell(string(r.HeatMode))
	case FieldHumidity:
		return numberCell(r.Humidity)
	case FieldWindowOpen:
		return optBoolCell(r.WindowOpen)
	case FieldLowBattery:
		return optBoolCell(r.LowBattery)
	case FieldBatteryLevel:
		return numberCell(r.BatteryLevel)
	case FieldTimerOn:
		return boolCell(r.TimerOn)
	case FieldModulation:
		return numberCell(r.Modulation)
	case FieldStatus:
		return textCell(r.Indicators.String())
	default:
		return cell{}
	}
}
