package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/KaramelBytes/surveylens-cli/internal/study"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	listStudies   bool
	listDatasets  bool
	listReports   bool
	listStudyName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List studies, or the datasets and reports of a study",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 0
		for _, b := range []bool{listStudies, listDatasets, listReports} {
			if b {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("specify exactly one of --studies, --datasets or --reports")
		}
		if listStudies {
			return listAllStudies()
		}
		if listStudyName == "" {
			return fmt.Errorf("--study is required when using --datasets or --reports")
		}
		s, err := openStudy(listStudyName)
		if err != nil {
			return err
		}
		if listDatasets {
			return listStudyDatasets(s)
		}
		return listStudyReports(s)
	},
}

func listAllStudies() error {
	root, err := defaultStudiesDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if study.Exists(filepath.Join(root, e.Name())) {
			fmt.Printf("- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Println("(no studies)")
	}
	return nil
}

func listStudyDatasets(s *study.Study) error {
	ds := s.SortedDatasets()
	if len(ds) == 0 {
		fmt.Println("(no datasets)")
		return nil
	}
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "Name", "Rows", "Columns", "Description"})
	tw.SetAutoWrapText(false)
	for _, d := range ds {
		tw.Append([]string{d.ID[:8], d.Name, strconv.Itoa(d.Rows), strconv.Itoa(len(d.Columns)), d.Description})
	}
	tw.Render()
	return nil
}

func listStudyReports(s *study.Study) error {
	if len(s.Reports) == 0 {
		fmt.Println("(no reports)")
		return nil
	}
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Kind", "File", "Dataset", "Failures", "Created"})
	tw.SetAutoWrapText(false)
	for _, r := range s.Reports {
		ds := "-"
		if d, ok := s.Datasets[r.DatasetID]; ok {
			ds = d.Name
		}
		tw.Append([]string{r.Kind, r.File, ds, strconv.Itoa(r.Failures), r.CreatedAt.Format("2006-01-02 15:04")})
	}
	tw.Render()
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listStudies, "studies", false, "list studies")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets attached to a study")
	listCmd.Flags().BoolVar(&listReports, "reports", false, "list reports saved in a study")
	listCmd.Flags().StringVarP(&listStudyName, "study", "p", "", "study name for --datasets/--reports")
}
