package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/surveylens-cli/internal/config"
	"github.com/KaramelBytes/surveylens-cli/internal/study"
	"github.com/KaramelBytes/surveylens-cli/internal/survey"
	"github.com/KaramelBytes/surveylens-cli/internal/utils"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	testStudy      string
	testOnly       []string
	testJSON       bool
	testOutputPath string
	testAlpha      float64
	testThreshold  float64
	testNoColor    bool
	testLoad       loadFlags
)

// testReport is the --json document.
type testReport struct {
	runInfo
	Failures int              `json:"failures"`
	Outcomes []survey.Outcome `json:"outcomes"`
}

var testCmd = &cobra.Command{
	Use:   "test <file>",
	Short: "Run the survey hypothesis tests",
	Long: `Test runs, in order: gender vs sports engagement (chi-square), academic
pressure vs depression (Kendall's tau-b), sleep hours by academic year (one-way
ANOVA) and depression flag on academic pressure and financial concerns
(logistic regression). A failing test is reported and does not stop the others;
the command exits non-zero when any test failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if testNoColor {
			color.NoColor = true
		}
		var s *study.Study
		if testStudy != "" {
			st, err := openStudy(testStudy)
			if err != nil {
				return err
			}
			s = st
		}
		opts := survey.DefaultOptions()
		opts.Alpha, opts.DepressionThreshold = studySettings(s)
		if cmd.Flags().Changed("alpha") {
			if !(testAlpha > 0 && testAlpha < 1) {
				return fmt.Errorf("--alpha must be in (0,1), got %v", testAlpha)
			}
			opts.Alpha = testAlpha
		}
		if cmd.Flags().Changed("threshold") {
			if err := cfgpkg.ValidateThreshold(testThreshold); err != nil {
				return fmt.Errorf("--threshold: %w", err)
			}
			opts.DepressionThreshold = testThreshold
		}
		plan, err := survey.DefaultPlan(opts).Select(testOnly)
		if err != nil {
			return err
		}

		path, datasetID, err := resolveInput(s, args[0])
		if err != nil {
			return err
		}
		t, err := testLoad.load(path)
		if err != nil {
			return err
		}

		info := runInfo{
			RunID:     uuid.NewString(),
			Dataset:   filepath.Base(path),
			Rows:      t.Rows(),
			Alpha:     opts.Alpha,
			Threshold: opts.DepressionThreshold,
		}
		logger.Debug("running tests", zap.String("run_id", info.RunID), zap.Strings("routines", plan.Names()))
		outcomes := survey.Run(t, plan, logger)
		failures := survey.Failures(outcomes)

		if testJSON {
			b, err := utils.PrettyJSON(testReport{runInfo: info, Failures: failures, Outcomes: outcomes})
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		} else {
			outcomeRenderer{w: os.Stdout}.render(info, outcomes)
		}

		if testOutputPath != "" || s != nil {
			var md bytes.Buffer
			outcomeRenderer{w: &md, markdown: true}.render(info, outcomes)
			if testOutputPath != "" {
				if err := utils.SafeWriteFile(testOutputPath, md.Bytes()); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				if !testJSON {
					fmt.Printf("✓ Wrote report to %s\n", testOutputPath)
				}
			}
			if s != nil {
				r, err := s.SaveReport("test", datasetID, failures, md.Bytes())
				if err != nil {
					return err
				}
				if err := s.Save(); err != nil {
					return err
				}
				if !testJSON {
					fmt.Printf("✓ Saved report to study '%s' as %s\n", s.Name, r.File)
				}
			}
		}

		if failures > 0 {
			return fmt.Errorf("%d of %d tests failed", failures, len(outcomes))
		}
		return nil
	},
}

// studySettings resolves alpha and the depression threshold: study override,
// then config, then built-in defaults.
func studySettings(s *study.Study) (alpha, threshold float64) {
	d := survey.DefaultOptions()
	alpha, threshold = d.Alpha, d.DepressionThreshold
	if cfg != nil {
		if cfg.Alpha > 0 {
			alpha = cfg.Alpha
		}
		if cfg.DepressionThreshold > 0 {
			threshold = cfg.DepressionThreshold
		}
	}
	if s != nil && s.Config != nil {
		if s.Config.Alpha > 0 {
			alpha = s.Config.Alpha
		}
		if s.Config.DepressionThreshold > 0 {
			threshold = s.Config.DepressionThreshold
		}
	}
	return alpha, threshold
}

func init() {
	rootCmd.AddCommand(testCmd)
	f := testCmd.Flags()
	f.StringVarP(&testStudy, "study", "p", "", "study name; saves the report and supplies alpha/threshold")
	f.StringSliceVar(&testOnly, "only", nil, "comma-separated routines to run: association, correlation, anova, logit")
	f.BoolVar(&testJSON, "json", false, "print structured results as JSON")
	f.StringVarP(&testOutputPath, "output", "o", "", "optional path to write the report (Markdown)")
	f.Float64Var(&testAlpha, "alpha", 0.05, "significance level (default: study or config alpha)")
	f.Float64Var(&testThreshold, "threshold", 3, "depression score at or above which depression_flag is 1 (default: study or config)")
	f.BoolVar(&testNoColor, "no-color", false, "disable colored output")
	testLoad.register(testCmd)
}
