package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cfgpkg "github.com/KaramelBytes/surveylens-cli/internal/config"
	"github.com/KaramelBytes/surveylens-cli/internal/study"
	"github.com/KaramelBytes/surveylens-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	initDescription string
	initAlpha       float64
	initThreshold   float64
)

var initCmd = &cobra.Command{
	Use:   "init <study-name>",
	Short: "Initialize a new SurveyLens study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("invalid study name %q", name)
		}
		if cmd.Flags().Changed("alpha") && !(initAlpha > 0 && initAlpha < 1) {
			return fmt.Errorf("--alpha must be in (0,1), got %v", initAlpha)
		}
		if cmd.Flags().Changed("threshold") {
			if err := cfgpkg.ValidateThreshold(initThreshold); err != nil {
				return fmt.Errorf("--threshold: %w", err)
			}
		}
		root, err := defaultStudiesDir()
		if err != nil {
			return err
		}
		dir := filepath.Join(root, name)
		// Refuse to overwrite an existing study.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if study.Exists(dir) {
				return fmt.Errorf("study already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect study directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize study", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat study directory: %w", err)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		s := study.New(name, initDescription, dir)
		if cmd.Flags().Changed("alpha") {
			s.Config.Alpha = initAlpha
		}
		if cmd.Flags().Changed("threshold") {
			s.Config.DepressionThreshold = initThreshold
		}
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Study initialized: %s\n", dir)
		return nil
	},
}

func defaultStudiesDir() (string, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.StudiesDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".surveylens", "studies")
	}
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = strings.TrimPrefix(dir, "~")
		dir = strings.TrimPrefix(dir, string(os.PathSeparator))
		dir = strings.TrimPrefix(dir, "/")
		dir = filepath.Join(home, dir)
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// resolveStudyDir maps a study reference to its directory. A bare name lives
// under the studies dir; "." or a path is searched upwards for study.json.
func resolveStudyDir(ref string) (string, error) {
	if ref == "" {
		return "", errors.New("study name is required")
	}
	if ref == "." || strings.ContainsAny(ref, `/\`) {
		return utils.FindStudyRoot(ref)
	}
	root, err := defaultStudiesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, ref), nil
}

func openStudy(ref string) (*study.Study, error) {
	dir, err := resolveStudyDir(ref)
	if err != nil {
		return nil, err
	}
	return study.Load(dir)
}

// resolveInput returns the file to load for arg. With a study, arg may also
// name an attached dataset by id, id prefix or file name; the dataset id is
// returned when known.
func resolveInput(s *study.Study, arg string) (path, datasetID string, err error) {
	if s == nil {
		return arg, "", nil
	}
	if _, statErr := os.Stat(arg); statErr == nil {
		if d := s.DatasetByPath(arg); d != nil {
			return arg, d.ID, nil
		}
		return arg, "", nil
	}
	d, err := s.FindDataset(arg)
	if err != nil {
		return "", "", err
	}
	return d.Path, d.ID, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "study description")
	initCmd.Flags().Float64Var(&initAlpha, "alpha", 0, "significance level for this study (default: config alpha)")
	initCmd.Flags().Float64Var(&initThreshold, "threshold", 0, "depression flag threshold for this study (default: config depression_threshold)")
}
