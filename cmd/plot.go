package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/surveylens-cli/internal/plot"
	"github.com/KaramelBytes/surveylens-cli/internal/study"
	"github.com/KaramelBytes/surveylens-cli/internal/survey"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	plotStudy     string
	plotOutDir    string
	plotBins      int
	plotTopN      int
	plotSplit     []string
	plotSeparator string
	plotWidthCm   float64
	plotHeightCm  float64
	plotLoad      loadFlags
)

var plotCmd = &cobra.Command{
	Use:   "plot <file>",
	Short: "Draw one PNG chart per column of a survey dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var s *study.Study
		if plotStudy != "" {
			st, err := openStudy(plotStudy)
			if err != nil {
				return err
			}
			s = st
		}
		path, _, err := resolveInput(s, args[0])
		if err != nil {
			return err
		}
		t, err := plotLoad.load(path)
		if err != nil {
			return err
		}
		if t.Has(survey.ColAverageSleep) {
			if err := survey.AddSleepHours(t); err != nil {
				logger.Warn("sleep hours not derived", zap.Error(err))
			}
		}

		opt := plot.DefaultOptions()
		dir := "plots"
		if cfg != nil {
			opt.WidthCm, opt.HeightCm = cfg.PlotWidthCm, cfg.PlotHeightCm
			dir = cfg.PlotDir
		}
		if s != nil {
			base := filepath.Base(path)
			dir = filepath.Join(s.RootDir(), "plots", strings.TrimSuffix(base, filepath.Ext(base)))
		}
		if plotOutDir != "" {
			dir = plotOutDir
		}
		if plotWidthCm > 0 {
			opt.WidthCm = plotWidthCm
		}
		if plotHeightCm > 0 {
			opt.HeightCm = plotHeightCm
		}
		if plotBins > 0 {
			opt.Bins = plotBins
		}
		if plotTopN > 0 {
			opt.TopN = plotTopN
		}
		opt.Split = plotSplit
		opt.Separator = plotSeparator

		charts, err := plot.Columns(t, dir, opt)
		if err != nil {
			return err
		}
		if len(charts) == 0 {
			fmt.Println("(no plottable columns)")
			return nil
		}
		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"Column", "Chart", "File"})
		tw.SetAutoWrapText(false)
		for _, c := range charts {
			tw.Append([]string{c.Column, c.Kind, c.Path})
		}
		tw.Render()
		fmt.Printf("✓ Wrote %d charts to %s\n", len(charts), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	f := plotCmd.Flags()
	f.StringVarP(&plotStudy, "study", "p", "", "study name; charts go under <study>/plots/<dataset>")
	f.StringVar(&plotOutDir, "out", "", "output directory (default: config plot_dir)")
	f.IntVar(&plotBins, "bins", 10, "histogram bin count")
	f.IntVar(&plotTopN, "top", 12, "bars per categorical chart before folding into 'other'")
	f.StringSliceVar(&plotSplit, "split", []string{survey.ColStressRelief}, "multi-valued columns drawn as a per-token breakdown")
	f.StringVar(&plotSeparator, "separator", ",", "token separator for --split columns")
	f.Float64Var(&plotWidthCm, "width", 0, "chart width in cm (default: config plot_width_cm)")
	f.Float64Var(&plotHeightCm, "height", 0, "chart height in cm (default: config plot_height_cm)")
	plotLoad.register(plotCmd)
}
