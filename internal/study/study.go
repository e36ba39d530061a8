// Package study persists a named analysis workspace: attached survey datasets,
// per-study test settings and saved reports.
package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
	"github.com/KaramelBytes/surveylens-cli/internal/utils"
)

const (
	studyFileName = utils.StudyFile
	reportsDir    = "reports"
)

// Study represents a surveylens study persisted on disk.
type Study struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Datasets    map[string]*Dataset `json:"datasets"`
	Reports     []*Report           `json:"reports"`
	Config      *Config             `json:"config"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Not serialized: on-disk location of the study.json
	rootDir string `json:"-"`
}

// Config holds per-study overrides. Zero values inherit the global config.
type Config struct {
	Alpha               float64 `json:"alpha,omitempty"`
	DepressionThreshold float64 `json:"depression_threshold,omitempty"`
}

// New constructs an in-memory study. Call Save() to persist.
func New(name, description, rootDir string) *Study {
	return &Study{
		Name:        name,
		Description: description,
		Datasets:    make(map[string]*Dataset),
		Config:      &Config{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// Load reads study.json from the provided directory.
func Load(dir string) (*Study, error) {
	path := filepath.Join(dir, studyFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("study not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read study: %w", err)
	}
	var s Study
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse study: %w", err)
	}
	if s.Datasets == nil {
		s.Datasets = make(map[string]*Dataset)
	}
	if s.Config == nil {
		s.Config = &Config{}
	}
	s.rootDir = dir
	return &s, nil
}

// Exists reports whether dir holds a study.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, studyFileName))
	return err == nil
}

// RootDir returns the on-disk study directory path.
func (s *Study) RootDir() string { return s.rootDir }

// Save writes study.json using atomic write.
func (s *Study) Save() error {
	if s.rootDir == "" {
		return errors.New("study root directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, studyFileName), data)
}

// AddDataset loads the file to validate it and records its shape.
func (s *Study) AddDataset(path, description string, opt dataset.Options) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	t, err := dataset.Load(abs, opt)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	d := &Dataset{
		ID:          uuid.NewString(),
		Path:        abs,
		Name:        filepath.Base(abs),
		Description: description,
		Rows:        t.SourceRows,
		Columns:     t.Names(),
		AddedAt:     time.Now(),
	}
	s.Datasets[d.ID] = d
	s.UpdatedAt = time.Now()
	return d, nil
}

// SortedDatasets returns datasets ordered by the time they were added.
func (s *Study) SortedDatasets() []*Dataset {
	out := make([]*Dataset, 0, len(s.Datasets))
	for _, d := range s.Datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}

// FindDataset looks a dataset up by id, id prefix or file name.
func (s *Study) FindDataset(ref string) (*Dataset, error) {
	if d, ok := s.Datasets[ref]; ok {
		return d, nil
	}
	var hits []*Dataset
	for _, d := range s.SortedDatasets() {
		if strings.HasPrefix(d.ID, ref) || strings.EqualFold(d.Name, ref) {
			hits = append(hits, d)
		}
	}
	switch len(hits) {
	case 0:
		return nil, fmt.Errorf("dataset %q not found in study %s", ref, s.Name)
	case 1:
		return hits[0], nil
	}
	return nil, fmt.Errorf("dataset %q is ambiguous in study %s (%d matches)", ref, s.Name, len(hits))
}

// DatasetByPath returns the dataset attached from path, if any.
func (s *Study) DatasetByPath(path string) *Dataset {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	for _, d := range s.Datasets {
		if d.Path == abs {
			return d
		}
	}
	return nil
}

// SaveReport writes content under reports/ with a name that does not clash
// with existing files and records it. The study itself is not saved.
func (s *Study) SaveReport(kind, datasetID string, failures int, content []byte) (*Report, error) {
	dir := filepath.Join(s.rootDir, reportsDir)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure reports dir: %w", err)
	}
	base := fmt.Sprintf("%s-%s", kind, time.Now().Format("20060102-150405"))
	path, err := utils.UniquePath(dir, base, ".md")
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(path, content); err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(s.rootDir, path)
	if err != nil {
		rel = path
	}
	r := &Report{ID: uuid.NewString(), Kind: kind, File: rel, DatasetID: datasetID, Failures: failures, CreatedAt: time.Now()}
	s.Reports = append(s.Reports, r)
	s.UpdatedAt = time.Now()
	return r, nil
}
