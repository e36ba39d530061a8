package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	addStudyName string
	addDesc      string
	addLoad      loadFlags
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Attach a survey dataset to a study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		if addStudyName == "" {
			return fmt.Errorf("--study is required")
		}
		s, err := openStudy(addStudyName)
		if err != nil {
			return err
		}
		if d := s.DatasetByPath(file); d != nil {
			return fmt.Errorf("dataset already attached as %s", d.ID)
		}
		opt, err := addLoad.options()
		if err != nil {
			return err
		}
		d, err := s.AddDataset(file, addDesc, opt)
		if err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Dataset added: %s (%d rows, %d columns, id %s)\n", filepath.Base(file), d.Rows, len(d.Columns), d.ID[:8])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addStudyName, "study", "p", "", "study name")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "dataset description")
	addLoad.register(addCmd)
}
