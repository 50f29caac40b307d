// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is a spreadsheet file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported spreadsheet format %q", filepath.Ext(path))
	}
}

// ReadFile reads the first sheet of an XLSX file or a CSV file.
func ReadFile(path string) (Sheet, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Sheet{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var sheet Sheet

	switch format {
	case FormatXLSX:
		sheet, err = ReadXLSX(f)
	default:
		sheet, err = ReadCSV(f)
	}

	if err != nil {
		return Sheet{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return sheet, nil
}

// ReadXLSX reads the first worksheet.
func ReadXLSX(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Sheet{}, ErrEmptySheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Sheet{}, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}

	return toSheet(rows)
}

// ReadCSV reads comma or semicolon separated values. The separator is the
// one that appears more often in the header line.
func ReadCSV(r io.Reader) (Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Sheet{}, err
	}

	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return Sheet{}, ErrEmptySheet
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffSeparator(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("parsing csv: %w", err)
	}

	return toSheet(rows)
}

func sniffSeparator(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}

	return ','
}

func toSheet(rows [][]string) (Sheet, error) {
	if len(rows) < 2 {
		return Sheet{}, ErrEmptySheet
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	return Sheet{Header: header, Records: rows[1:]}, nil
}

// WriteFile writes header and records to path, in the format given by its
// extension.
func WriteFile(path string, header []string, records [][]string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	switch format {
	case FormatXLSX:
		err = WriteXLSX(f, header, records)
	default:
		err = WriteCSV(f, header, records)
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// StopsSheet is the worksheet name used for exports.
const StopsSheet = "Paradas"

// WriteXLSX writes a single-sheet workbook.
func WriteXLSX(w io.Writer, header []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StopsSheet); err != nil {
		return err
	}

	for r, rec := range append([][]string{header}, records...) {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}

		values := make([]any, len(rec))
		for i, v := range rec {
			values[i] = v
		}

		if err := f.SetSheetRow(StopsSheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", r+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}

	return nil
}

// WriteCSV writes comma separated values.
func WriteCSV(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}

	if err := cw.WriteAll(records); err != nil {
		return err
	}

	return cw.Error()
}
