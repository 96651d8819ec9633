package service

import (
	"fmt"
	"io"

	"ubp-service/internal/fileio"
	"ubp-service/internal/ubp/model"
)

// RunResult: разбор файла + расчёт.
type RunResult struct {
	File    string                   `json:"file"`
	Sheet   string                   `json:"sheet"`
	Parse   ParseStats               `json:"parse"`
	Results model.CalculationResults `json:"-"`
}

// Run читает Mengenliste из r (формат по расширению filename) и считает UBP.
// Ошибки только структурные (файл не читается, нет колонки позиции).
func (c *Calculator) Run(r io.Reader, filename string, opt fileio.Options) (RunResult, error) {
	t, err := fileio.ReadTable(r, filename, opt)
	if err != nil {
		return RunResult{}, fmt.Errorf("read %s: %w", filename, err)
	}
	records, stats, err := ToRecords(t, c.log)
	if err != nil {
		return RunResult{}, fmt.Errorf("read %s: %w", filename, err)
	}
	c.log.Debug().Str("file", filename).Str("sheet", t.Sheet).
		Int("rows", stats.Rows).Int("skipped", stats.Skipped).
		Msg("mengenliste parsed")

	return RunResult{
		File:    filename,
		Sheet:   t.Sheet,
		Parse:   stats,
		Results: c.Calculate(records),
	}, nil
}
