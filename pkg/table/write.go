package table

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

// climateRecord is the parquet schema of the climate table. Every
// structurally expected column is present; unobserved values are null.
type climateRecord struct {
	LakeID   string    `parquet:"lake_id"`
	LakeName string    `parquet:"lake_name"`
	Date     time.Time `parquet:"date"`
	Tmin     *float64  `parquet:"tmin,optional"`
	Tmax     *float64  `parquet:"tmax,optional"`
	Prcp     *float64  `parquet:"prcp,optional"`
	Srad     *float64  `parquet:"srad,optional"`
	Vp       *float64  `parquet:"vp,optional"`
	Dayl     *float64  `parquet:"dayl,optional"`
}

// indexRecord is the parquet schema of the index table.
type indexRecord struct {
	LakeID  string    `parquet:"lake_id"`
	Date    time.Time `parquet:"date"`
	Product string    `parquet:"product"`
	CIMean  *float64  `parquet:"CI_mean,optional"`
	CIP90   *float64  `parquet:"CI_p90,optional"`
	NValid  int64     `parquet:"n_valid"`
	Src     string    `parquet:"src"`
	Engine  string    `parquet:"engine"`
}

const dateLayout = "2006-01-02"

// WriteClimate persists the climate table, choosing CSV or parquet from
// the file extension. The parent directory is created when absent.
func WriteClimate(path string, rows []ClimateRow) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return writeClimateCSV(path, rows)
	}
	recs := make([]climateRecord, len(rows))
	for i, r := range rows {
		recs[i] = climateRecord{
			LakeID:   r.LakeID,
			LakeName: r.LakeName,
			Date:     r.Date,
			Tmin:     optValue(r.Values, "tmin"),
			Tmax:     optValue(r.Values, "tmax"),
			Prcp:     optValue(r.Values, "prcp"),
			Srad:     optValue(r.Values, "srad"),
			Vp:       optValue(r.Values, "vp"),
			Dayl:     optValue(r.Values, "dayl"),
		}
	}
	return writeParquet(path, recs)
}

// WriteIndex persists the index table, choosing CSV or parquet from the
// file extension.
func WriteIndex(path string, rows []IndexRow) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return writeIndexCSV(path, rows)
	}
	recs := make([]indexRecord, len(rows))
	for i, r := range rows {
		recs[i] = indexRecord{
			LakeID:  r.LakeID,
			Date:    r.Date,
			Product: r.Product,
			CIMean:  optFloat(r.CIMean),
			CIP90:   optFloat(r.CIP90),
			NValid:  int64(r.NValid),
			Src:     r.Src,
			Engine:  r.Engine,
		}
	}
	return writeParquet(path, recs)
}

func writeParquet[T any](path string, recs []T) error {
	f, err := createOutput(path)
	if err != nil {
		return err
	}
	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(recs); err != nil {
		f.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize parquet %s: %w", path, err)
	}
	return f.Close()
}

func writeClimateCSV(path string, rows []ClimateRow) error {
	f, err := createOutput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"lake_id", "lake_name", "date"}, ClimateVariables...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.LakeID, r.LakeName, r.Date.UTC().Format(dateLayout)}
		for _, v := range ClimateVariables {
			if x, ok := r.Values[v]; ok && !math.IsNaN(x) {
				rec = append(rec, strconv.FormatFloat(x, 'g', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeIndexCSV(path string, rows []IndexRow) error {
	f, err := createOutput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"lake_id", "date", "product", "CI_mean", "CI_p90", "n_valid", "src", "engine"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.LakeID,
			r.Date.UTC().Format(dateLayout),
			r.Product,
			formatFloat(r.CIMean),
			formatFloat(r.CIP90),
			strconv.Itoa(r.NValid),
			r.Src,
			r.Engine,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func createOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	return f, nil
}

func optValue(values map[string]float64, name string) *float64 {
	x, ok := values[name]
	if !ok || math.IsNaN(x) {
		return nil
	}
	return &x
}

func optFloat(x float64) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	return &x
}

func formatFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
