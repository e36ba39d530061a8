package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/surveylens-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	stStudy string
	stClear bool
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Manage per-study settings",
}

var studyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a study's settings and attachments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if stStudy == "" {
			return fmt.Errorf("--study is required")
		}
		s, err := openStudy(stStudy)
		if err != nil {
			return err
		}
		alpha, threshold := studySettings(s)
		fmt.Printf("name: %s\n", s.Name)
		if s.Description != "" {
			fmt.Printf("description: %s\n", s.Description)
		}
		fmt.Printf("dir: %s\n", s.RootDir())
		fmt.Printf("alpha: %g%s\n", alpha, inherited(s.Config.Alpha))
		fmt.Printf("depression_threshold: %g%s\n", threshold, inherited(s.Config.DepressionThreshold))
		fmt.Printf("datasets: %d\n", len(s.Datasets))
		fmt.Printf("reports: %d\n", len(s.Reports))
		return nil
	},
}

var studySetCmd = &cobra.Command{
	Use:   "set <alpha|depression_threshold> [value]",
	Short: "Set or clear a study's test setting",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if stStudy == "" {
			return fmt.Errorf("--study is required")
		}
		s, err := openStudy(stStudy)
		if err != nil {
			return err
		}
		key := args[0]
		var val float64
		if !stClear {
			if len(args) < 2 || args[1] == "" {
				return fmt.Errorf("value is required unless --clear is set")
			}
			val, err = strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid float for %s: %v", key, args[1])
			}
		}
		switch key {
		case "alpha":
			if !stClear && !(val > 0 && val < 1) {
				return fmt.Errorf("alpha must be in (0,1), got %v", val)
			}
			s.Config.Alpha = val
		case "depression_threshold":
			if !stClear {
				if err := cfgpkg.ValidateThreshold(val); err != nil {
					return err
				}
			}
			s.Config.DepressionThreshold = val
		default:
			return fmt.Errorf("unknown key: %s (use alpha or depression_threshold)", key)
		}
		if err := s.Save(); err != nil {
			return err
		}
		if stClear {
			fmt.Printf("✓ Cleared %s for study %s\n", key, s.Name)
		} else {
			fmt.Printf("✓ Set %s for study %s: %g\n", key, s.Name, val)
		}
		return nil
	},
}

func inherited(v float64) string {
	if v == 0 {
		return " (from config)"
	}
	return ""
}

func init() {
	rootCmd.AddCommand(studyCmd)
	studyCmd.AddCommand(studyShowCmd)
	studyCmd.AddCommand(studySetCmd)

	studyCmd.PersistentFlags().StringVarP(&stStudy, "study", "p", "", "study name")
	studySetCmd.Flags().BoolVar(&stClear, "clear", false, "clear the study's override")
}
