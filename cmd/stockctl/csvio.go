package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

func parseDate(s string) (time.Time, error) {
	t, ok := util.ParseTime(strings.TrimSpace(s))
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t.UTC(), nil
}

// readRows returns the records of a CSV file, dropping a leading header row.
func readRows(r io.Reader, minFields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		if _, err := parseDate(rows[0][0]); err != nil {
			rows = rows[1:]
		}
	}
	for i, row := range rows {
		if len(row) < minFields {
			return nil, fmt.Errorf("row %d: want %d fields, got %d", i+1, minFields, len(row))
		}
	}
	return rows, nil
}

func parseFloat(row []string, idx, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, fmt.Errorf("row %d column %d: %w", line, idx+1, err)
	}
	return v, nil
}

// ReadSeries parses date,value rows.
func ReadSeries(r io.Reader) (models.TimeSeries, error) {
	rows, err := readRows(r, 2)
	if err != nil {
		return nil, err
	}
	out := make(models.TimeSeries, 0, len(rows))
	for i, row := range rows {
		t, err := parseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		v, err := parseFloat(row, 1, i+1)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Point{Time: t, Value: v})
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadForecast parses date,yhat,yhat_lower,yhat_upper rows. Rows with only
// date,yhat get a zero-width band.
func ReadForecast(r io.Reader) (models.Forecast, error) {
	rows, err := readRows(r, 2)
	if err != nil {
		return nil, err
	}
	out := make(models.Forecast, 0, len(rows))
	for i, row := range rows {
		t, err := parseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		p := models.ForecastPoint{Time: t}
		if p.Yhat, err = parseFloat(row, 1, i+1); err != nil {
			return nil, err
		}
		p.Lower, p.Upper = p.Yhat, p.Yhat
		if len(row) >= 4 {
			if p.Lower, err = parseFloat(row, 2, i+1); err != nil {
				return nil, err
			}
			if p.Upper, err = parseFloat(row, 3, i+1); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func readSeriesFile(path string) (models.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func readForecastFile(path string) (models.Forecast, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fc, err := ReadForecast(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}
