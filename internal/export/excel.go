// Package export 设备清单导出
package export

import (
	"bytes"
	"fmt"

	"plantd-admin/internal/domain"

	"github.com/xuri/excelize/v2"
)

// DeviceExportHeader 设备导出表头
var DeviceExportHeader = []string{
	"Device ID",
	"Device Name",
	"Plant ID",
	"Parent Device ID",
	"Serial Number",
	"Manufacturer",
	"Model",
	"Status",
	"MQTT Topic",
	"Description",
}

// Devices 生成设备清单 Excel 文件
// data 为空时只生成表头。
func Devices(devices []domain.Device) ([]byte, error) {
	f := excelize.NewFile()

	sheetName := "Devices"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range DeviceExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 写入数据（第 1 行是表头，从第 2 行开始）
	for rowIdx, d := range devices {
		row := rowIdx + 2
		parent := ""
		if d.ParentDeviceID != nil {
			parent = *d.ParentDeviceID
		}
		values := []any{
			d.DeviceID,
			d.DeviceName,
			d.PlantID,
			parent,
			d.SerialNumber,
			d.Manufacturer,
			d.Model,
			string(d.Status),
			d.MQTTTopic,
			d.Description,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
