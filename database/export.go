package database

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"time"
)

type CsvConverter struct {
	Headers       []string
	WriteHeaders  bool
	TimeFormat    string
	FloatFormat   string
	Delimiter     rune
	BinaryColumns []string // columns written as byte count instead of content
	rows          *sql.Rows
}

func New(rows *sql.Rows) *CsvConverter {
	return &CsvConverter{
		rows:         rows,
		WriteHeaders: true,
		Delimiter:    ',',
	}
}

func (c CsvConverter) WriteFile(csvFileName string) error {
	f, err := os.Create(csvFileName)
	if err != nil {
		return err
	}

	err = c.Write(f)
	if err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (c CsvConverter) Write(writer io.Writer) error {
	rows := c.rows

	csvWriter := csv.NewWriter(writer)

	if c.Delimiter != '\x00' {
		csvWriter.Comma = c.Delimiter
	}

	columnNames, err := rows.Columns()
	if err != nil {
		return err
	}

	if c.WriteHeaders {
		var headers []string
		if len(c.Headers) > 0 {
			headers = c.Headers
		} else {
			headers = columnNames
		}

		err = csvWriter.Write(headers)
		if err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	count := len(columnNames)
	values := make([]any, count)
	valuePtrs := make([]any, count)

	for rows.Next() {
		row := make([]string, count)

		for i := range columnNames {
			valuePtrs[i] = &values[i]
		}

		if err = rows.Scan(valuePtrs...); err != nil {
			return err
		}

		for i, name := range columnNames {
			row[i] = c.formatValue(name, values[i])
		}

		if err = csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write data row to csv %w", err)
		}
	}
	err = rows.Err()
	csvWriter.Flush()

	if err == nil {
		err = csvWriter.Error()
	}

	return err
}

func (c CsvConverter) formatValue(columnName string, rawValue any) string {
	var value any

	byteArray, ok := rawValue.([]byte)
	if ok && slices.Contains(c.BinaryColumns, columnName) {
		return fmt.Sprintf("<%d bytes>", len(byteArray))
	} else if ok {
		value = string(byteArray)
	} else {
		value = rawValue
	}

	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		if c.FloatFormat != "" {
			return fmt.Sprintf(c.FloatFormat, v)
		}
	case float32:
		if c.FloatFormat != "" {
			return fmt.Sprintf(c.FloatFormat, v)
		}
	case time.Time:
		if c.TimeFormat != "" {
			return v.Format(c.TimeFormat)
		}
	}

	return fmt.Sprintf("%v", value)
}
