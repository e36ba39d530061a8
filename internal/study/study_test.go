package study_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
	"github.com/KaramelBytes/surveylens-cli/internal/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudyRoundTripWithDatasetsAndReports(t *testing.T) {
	tdir := t.TempDir()
	csvPath := filepath.Join(tdir, "survey.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("gender,depression\nMale,3\nFemale,1\n"), 0o644))

	s := study.New("wellbeing", "spring cohort", filepath.Join(tdir, "wellbeing"))
	d, err := s.AddDataset(csvPath, "wave 1", dataset.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Rows)
	assert.Equal(t, []string{"gender", "depression"}, d.Columns)

	r1, err := s.SaveReport("test", d.ID, 1, []byte("# report"))
	require.NoError(t, err)
	r2, err := s.SaveReport("test", d.ID, 0, []byte("# report 2"))
	require.NoError(t, err)
	assert.NotEqual(t, r1.File, r2.File, "report files collide")

	s.Config.Alpha = 0.01
	require.NoError(t, s.Save())
	require.True(t, study.Exists(s.RootDir()), "study.json not written")

	loaded, err := study.Load(s.RootDir())
	require.NoError(t, err)
	assert.Equal(t, "wellbeing", loaded.Name)
	assert.Len(t, loaded.Datasets, 1)
	require.Len(t, loaded.Reports, 2)
	assert.Equal(t, 0.01, loaded.Config.Alpha)

	b, err := os.ReadFile(filepath.Join(loaded.RootDir(), loaded.Reports[0].File))
	require.NoError(t, err)
	assert.Equal(t, "# report", string(b))

	byName, err := loaded.FindDataset("survey.csv")
	require.NoError(t, err)
	assert.Equal(t, d.ID, byName.ID)
	byPrefix, err := loaded.FindDataset(d.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, d.ID, byPrefix.ID)
	assert.NotNil(t, loaded.DatasetByPath(csvPath))
	_, err = loaded.FindDataset("missing.csv")
	assert.Error(t, err)
}

func TestLoadMissingStudy(t *testing.T) {
	_, err := study.Load(t.TempDir())
	assert.ErrorContains(t, err, "study not found")
}

func TestAddDatasetRejectsMissingFile(t *testing.T) {
	s := study.New("x", "", t.TempDir())
	_, err := s.AddDataset(filepath.Join(t.TempDir(), "nope.csv"), "", dataset.DefaultOptions())
	assert.Error(t, err)
}
