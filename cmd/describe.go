package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/surveylens-cli/internal/analysis"
	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
	"github.com/KaramelBytes/surveylens-cli/internal/study"
	"github.com/KaramelBytes/surveylens-cli/internal/survey"
	"github.com/KaramelBytes/surveylens-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	descStudy       string
	descOutputPath  string
	descSampleRows  int
	descTopValues   int
	descGroupBy     string
	descCorr        bool
	descOutliers    bool
	descOutlierThr  float64
	descValueCounts []string
	descSplit       []string
	descSeparator   string
	descNoDerive    bool
	descQuiet       bool
	descLoad        loadFlags
)

var describeCmd = &cobra.Command{
	Use:   "describe <files...>",
	Short: "Summarize one or more survey datasets as Markdown",
	Long: `Describe prints the shape, per-column statistics, value counts and the
multi-valued breakdown of each dataset. Arguments may be globs; with --study
they may also name attached datasets by id or file name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if descOutputPath != "" && len(files) > 1 {
			return fmt.Errorf("--output accepts a single input, got %d", len(files))
		}

		opt := analysis.DefaultOptions()
		if cfg != nil {
			opt.SampleRows = cfg.SampleRows
			opt.TopValues = cfg.TopValues
		}
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = descSampleRows
		}
		if cmd.Flags().Changed("top-values") {
			opt.TopValues = descTopValues
		}
		opt.GroupBy = descGroupBy
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}

		var s *study.Study
		if descStudy != "" {
			st, err := openStudy(descStudy)
			if err != nil {
				return err
			}
			s = st
		}

		total := len(files)
		for i, arg := range files {
			path, datasetID, err := resolveInput(s, arg)
			if err != nil {
				return err
			}
			if total > 1 && !descQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := descLoad.load(path)
			if err != nil {
				return err
			}
			md, err := describeTable(t, opt, cmd)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}

			switch {
			case s != nil:
				r, err := s.SaveReport("describe", datasetID, 0, []byte(md))
				if err != nil {
					return err
				}
				if err := s.Save(); err != nil {
					return err
				}
				if !descQuiet {
					fmt.Printf("✓ Saved summary to study '%s' as %s\n", s.Name, r.File)
				}
			case descOutputPath != "":
				if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
				if !descQuiet {
					fmt.Printf("✓ Wrote summary to %s\n", descOutputPath)
				}
			default:
				fmt.Println(md)
			}
		}
		return nil
	},
}

// describeTable renders the summary plus value counts and split breakdowns.
// Default columns absent from the table are skipped; explicit ones must exist.
func describeTable(t *dataset.Table, opt analysis.Options, cmd *cobra.Command) (string, error) {
	if !descNoDerive && t.Has(survey.ColAverageSleep) {
		if err := survey.AddSleepHours(t); err != nil {
			logger.Warn("sleep hours not derived", zap.Error(err))
		}
	}
	var b strings.Builder
	b.WriteString(analysis.Describe(t, opt).Markdown())

	strict := cmd.Flags().Changed("value-counts")
	for _, col := range descValueCounts {
		vc, err := analysis.ValueCounts(t, col)
		if err != nil {
			if !strict && errors.Is(err, dataset.ErrMissingColumn) {
				continue
			}
			return "", err
		}
		b.WriteString("\n")
		b.WriteString(vc.Markdown())
	}
	strict = cmd.Flags().Changed("split")
	for _, col := range descSplit {
		sc, err := analysis.SplitCounts(t, col, descSeparator)
		if err != nil {
			if !strict && errors.Is(err, dataset.ErrMissingColumn) {
				continue
			}
			return "", err
		}
		b.WriteString("\n")
		b.WriteString(sc.Markdown())
	}
	return b.String(), nil
}

// expandInputs expands globs, keeps unmatched arguments as literals and drops
// duplicates. Literals that are not files may still name study datasets.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			matches = []string{arg}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files
}

func init() {
	rootCmd.AddCommand(describeCmd)
	f := describeCmd.Flags()
	f.StringVarP(&descStudy, "study", "p", "", "study name to save the summary into")
	f.StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	f.IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include (default: config sample_rows)")
	f.IntVar(&descTopValues, "top-values", 8, "most frequent values listed per categorical column (default: config top_values)")
	f.StringVar(&descGroupBy, "group-by", "", "column to group numeric means by")
	f.BoolVar(&descCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	f.BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	f.Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	f.StringSliceVar(&descValueCounts, "value-counts", []string{survey.ColGender}, "columns to print full value counts for")
	f.StringSliceVar(&descSplit, "split", []string{survey.ColStressRelief}, "multi-valued columns to break down per token")
	f.StringVar(&descSeparator, "separator", analysis.DefaultSeparator, "token separator for --split columns")
	f.BoolVar(&descNoDerive, "no-derive", false, "do not add the derived average_sleep_hours column")
	f.BoolVar(&descQuiet, "quiet", false, "suppress progress and non-essential output")
	descLoad.register(describeCmd)
}
