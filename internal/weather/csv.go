package weather

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/cc0ffee/greensim/internal/sim"
)

// csvRow accepts both column-name variants for temperature and irradiance.
type csvRow struct {
	Datetime string   `csv:"datetime"`
	Tout     *float64 `csv:"Tout"`
	TOut     *float64 `csv:"T_out"`
	G        *float64 `csv:"G"`
	I        *float64 `csv:"I"`
	RH       *float64 `csv:"RH"`
}

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// LoadCSV reads a weather series from a CSV file.
func LoadCSV(path string) ([]sim.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weather csv: %w", err)
	}
	return ReadCSV(bytes.NewReader(data))
}

// ReadCSV parses a weather series. The header must name a datetime column,
// one of Tout/T_out and one of G/I; RH is optional. Individual blank values
// fall back to zero. An empty body (header only) yields an empty series.
func ReadCSV(r io.Reader) ([]sim.Sample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read weather csv: %w", err)
	}

	if err := checkHeader(data); err != nil {
		return nil, err
	}

	var rows []*csvRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, &sim.WeatherDataError{Reason: fmt.Sprintf("parse csv: %v", err)}
	}

	samples := make([]sim.Sample, 0, len(rows))
	for i, row := range rows {
		ts, err := parseCSVTime(row.Datetime)
		if err != nil {
			return nil, &sim.WeatherDataError{Reason: fmt.Sprintf("row %d: %v", i+1, err)}
		}

		s := sim.Sample{Time: ts, RH: row.RH}
		if row.Tout != nil {
			s.Tout = *row.Tout
		} else if row.TOut != nil {
			s.Tout = *row.TOut
		}
		if row.G != nil {
			s.G = *row.G
		} else if row.I != nil {
			s.G = *row.I
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func checkHeader(data []byte) error {
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err == io.EOF {
		return &sim.WeatherDataError{Reason: "empty csv"}
	}
	if err != nil {
		return &sim.WeatherDataError{Reason: fmt.Sprintf("read header: %v", err)}
	}

	cols := make(map[string]bool, len(header))
	for _, h := range header {
		cols[h] = true
	}

	if !cols["datetime"] {
		return &sim.WeatherDataError{Reason: "missing datetime column"}
	}
	if !cols["Tout"] && !cols["T_out"] {
		return &sim.WeatherDataError{Reason: "no recognizable temperature column (Tout or T_out)"}
	}
	if !cols["G"] && !cols["I"] {
		return &sim.WeatherDataError{Reason: "no recognizable irradiance column (G or I)"}
	}
	return nil
}

func parseCSVTime(v string) (time.Time, error) {
	for _, layout := range csvTimeLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", v)
}
