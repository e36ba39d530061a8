package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadFlags are the dataset reading flags shared by describe, plot, test and add.
type loadFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (lf *loadFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&lf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (by extension if omitted)")
	f.StringVar(&lf.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&lf.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.IntVar(&lf.maxRows, "max-rows", 0, "maximum rows to process (0 = config max_rows)")
	f.StringVar(&lf.sheetName, "sheet-name", "", "XLSX: sheet name to load")
	f.IntVar(&lf.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (lf *loadFlags) options() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	if cfg != nil {
		opt.MaxRows = cfg.MaxRows
	}
	if lf.maxRows > 0 {
		opt.MaxRows = lf.maxRows
	}
	switch lf.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", lf.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(lf.decimal)) {
	case ",", "comma":
		opt.Number.DecimalSeparator = ','
	case ".", "dot":
		opt.Number.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", lf.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(lf.thousands)) {
	case ",":
		opt.Number.ThousandsSeparator = ','
	case ".":
		opt.Number.ThousandsSeparator = '.'
	case "space", " ":
		opt.Number.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", lf.thousands)
	}
	opt.SheetName = lf.sheetName
	if lf.sheetIndex > 0 {
		opt.SheetIndex = lf.sheetIndex
	}
	return opt, nil
}

// load reads path with the flag options and logs its shape.
func (lf *loadFlags) load(path string) (*dataset.Table, error) {
	opt, err := lf.options()
	if err != nil {
		return nil, err
	}
	t, err := dataset.Load(path, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded",
		zap.String("path", path),
		zap.Int("rows", t.Rows()),
		zap.Int("source_rows", t.SourceRows),
		zap.Int("columns", t.NumColumns()))
	if t.SourceRows > t.Rows() {
		logger.Warn("row limit applied", zap.Int("kept", t.Rows()), zap.Int("source_rows", t.SourceRows))
	}
	return t, nil
}
