// Package seed reads the static startup data set from a directory. Every
// collection lives in its own file, encoded as JSON (.json) or YAML
// (.yaml, .yml). Projects pass through the migration normalizer so legacy
// note and company shapes never reach the store.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/migration"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrSeedDirMissing is returned when the seed directory does not exist
var ErrSeedDirMissing = errors.New("seed directory not found")

// Collection file base names
const (
	ProjectsFile          = "projects"
	OpportunitiesFile     = "opportunities"
	SalesRepsFile         = "salesReps"
	OpportunityStagesFile = "opportunityStages"
	OpportunityTypesFile  = "opportunityTypes"
	DivisionsFile         = "divisions"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Data is the entity part of the seed set
type Data struct {
	Projects      []domain.Project
	Opportunities []domain.Opportunity
}

// Reader loads seed collections from a directory
type Reader struct {
	dir        string
	normalizer *migration.Normalizer
	logger     *zap.Logger
}

// NewReader creates a reader over dir
func NewReader(dir string, normalizer *migration.Normalizer, logger *zap.Logger) *Reader {
	return &Reader{
		dir:        dir,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Dir returns the directory the reader loads from
func (r *Reader) Dir() string {
	return r.dir
}

// Load reads projects and opportunities. A missing collection file yields an
// empty collection; a file that cannot be decoded is an error.
func (r *Reader) Load() (Data, error) {
	if err := r.checkDir(); err != nil {
		return Data{}, err
	}

	var rawProjects []migration.RawProject
	if _, err := r.Collection(ProjectsFile, &rawProjects); err != nil {
		return Data{}, err
	}
	projects := make([]domain.Project, 0, len(rawProjects))
	for _, raw := range rawProjects {
		projects = append(projects, r.normalizer.NormalizeProject(raw))
	}

	opportunities := []domain.Opportunity{}
	if _, err := r.Collection(OpportunitiesFile, &opportunities); err != nil {
		return Data{}, err
	}

	r.logger.Info("Seed data loaded",
		zap.String("dir", r.dir),
		zap.Int("projects", len(projects)),
		zap.Int("opportunities", len(opportunities)),
	)

	return Data{Projects: projects, Opportunities: opportunities}, nil
}

// Collection decodes the file for the named collection into out. It reports
// false when no file exists for the collection.
func (r *Reader) Collection(name string, out any) (bool, error) {
	if err := r.checkDir(); err != nil {
		return false, err
	}

	path := FindFile(r.dir, name)
	if path == "" {
		r.logger.Warn("Seed collection not found", zap.String("collection", name), zap.String("dir", r.dir))
		return false, nil
	}

	if err := DecodeFile(path, out); err != nil {
		return false, err
	}
	r.logger.Debug("Seed collection decoded", zap.String("collection", name), zap.String("path", path))
	return true, nil
}

func (r *Reader) checkDir() error {
	info, err := os.Stat(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSeedDirMissing, r.dir)
		}
		return fmt.Errorf("failed to stat seed directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSeedDirMissing, r.dir)
	}
	return nil
}

// FindFile returns the first existing file for base name in dir, trying
// .json then .yaml then .yml. It returns "" when none exists.
func FindFile(dir, base string) string {
	for _, ext := range extensions {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// DecodeFile decodes a JSON or YAML file into out. YAML documents are
// converted to JSON first so the json tags and custom unmarshalers of the
// domain types apply to both encodings.
func DecodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(jsonCompatible(doc))
}

// jsonCompatible rewrites map[any]any nodes into map[string]any
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = jsonCompatible(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = jsonCompatible(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = jsonCompatible(child)
		}
		return t
	default:
		return v
	}
}
