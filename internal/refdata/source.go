package refdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/datawarehouse"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/seed"
	"go.uber.org/zap"
)

// ErrUnknownSource is returned for an unsupported reference source name
var ErrUnknownSource = errors.New("unknown reference data source")

// Source names
const (
	SourceFile      = "file"
	SourceWarehouse = "warehouse"
)

// Source loads reference tables once at startup
type Source interface {
	Load(ctx context.Context) (*Tables, error)
	Name() string
}

// NewSource selects the reference source named in configuration. The
// warehouse source needs an enabled warehouse client.
func NewSource(cfg *config.ReferenceConfig, reader *seed.Reader, dw *datawarehouse.Client, logger *zap.Logger) (Source, error) {
	switch cfg.Source {
	case "", SourceFile:
		return NewFileSource(reader, logger), nil
	case SourceWarehouse:
		if !dw.IsEnabled() {
			return nil, fmt.Errorf("reference source %q requires an enabled data warehouse", cfg.Source)
		}
		return NewWarehouseSource(dw, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, cfg.Source)
	}
}

// FileSource reads reference collections from seed files
type FileSource struct {
	reader *seed.Reader
	logger *zap.Logger
}

// NewFileSource creates a file-backed source
func NewFileSource(reader *seed.Reader, logger *zap.Logger) *FileSource {
	return &FileSource{reader: reader, logger: logger}
}

// Name implements Source
func (s *FileSource) Name() string { return SourceFile }

// Load implements Source. A missing divisions file means the default set.
func (s *FileSource) Load(ctx context.Context) (*Tables, error) {
	var (
		reps      []domain.SalesRep
		stages    []domain.OpportunityStage
		types     []domain.OpportunityType
		divisions []domain.Division
	)

	collections := []struct {
		name string
		out  any
	}{
		{seed.SalesRepsFile, &reps},
		{seed.OpportunityStagesFile, &stages},
		{seed.OpportunityTypesFile, &types},
		{seed.DivisionsFile, &divisions},
	}
	for _, c := range collections {
		if _, err := s.reader.Collection(c.name, c.out); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", c.name, err)
		}
	}

	s.logger.Info("Reference data loaded",
		zap.String("source", SourceFile),
		zap.Int("salesReps", len(reps)),
		zap.Int("stages", len(stages)),
		zap.Int("types", len(types)),
	)
	return NewTables(reps, stages, types, divisions), nil
}

// Warehouse reference tables
const (
	tableSalesReps = "sales_reps"
	tableStages    = "opportunity_stages"
	tableTypes     = "opportunity_types"
	tableDivisions = "divisions"
)

// WarehouseSource reads reference tables from the data warehouse
type WarehouseSource struct {
	client *datawarehouse.Client
	logger *zap.Logger
}

// NewWarehouseSource creates a warehouse-backed source
func NewWarehouseSource(client *datawarehouse.Client, logger *zap.Logger) *WarehouseSource {
	return &WarehouseSource{client: client, logger: logger}
}

// Name implements Source
func (s *WarehouseSource) Name() string { return SourceWarehouse }

// Load implements Source
func (s *WarehouseSource) Load(ctx context.Context) (*Tables, error) {
	repRows, err := s.client.SelectAll(ctx, tableSalesReps, "id", "name", "email")
	if err != nil {
		return nil, fmt.Errorf("failed to load sales reps: %w", err)
	}
	reps := make([]domain.SalesRep, 0, len(repRows))
	for _, row := range repRows {
		reps = append(reps, domain.SalesRep{
			ID:    domain.UserID(asInt(row["id"])),
			Name:  asString(row["name"]),
			Email: asString(row["email"]),
		})
	}

	stageRows, err := s.client.SelectAll(ctx, tableStages, "id", "name", "display_order")
	if err != nil {
		return nil, fmt.Errorf("failed to load opportunity stages: %w", err)
	}
	stages := make([]domain.OpportunityStage, 0, len(stageRows))
	for _, row := range stageRows {
		stages = append(stages, domain.OpportunityStage{
			ID:           asInt(row["id"]),
			Name:         asString(row["name"]),
			DisplayOrder: asInt(row["display_order"]),
		})
	}

	typeRows, err := s.client.SelectAll(ctx, tableTypes, "id", "name", "display_order")
	if err != nil {
		return nil, fmt.Errorf("failed to load opportunity types: %w", err)
	}
	types := make([]domain.OpportunityType, 0, len(typeRows))
	for _, row := range typeRows {
		types = append(types, domain.OpportunityType{
			ID:           asInt(row["id"]),
			Name:         asString(row["name"]),
			DisplayOrder: asInt(row["display_order"]),
		})
	}

	var divisions []domain.Division
	divisionRows, err := s.client.SelectAll(ctx, tableDivisions, "id", "name")
	if err != nil {
		s.logger.Warn("Division table unavailable, using default divisions", zap.Error(err))
	} else if len(divisionRows) > 0 {
		divisions = make([]domain.Division, 0, len(divisionRows))
		for _, row := range divisionRows {
			divisions = append(divisions, domain.Division{
				ID:   asString(row["id"]),
				Name: asString(row["name"]),
			})
		}
	}

	s.logger.Info("Reference data loaded",
		zap.String("source", SourceWarehouse),
		zap.Int("salesReps", len(reps)),
		zap.Int("stages", len(stages)),
		zap.Int("types", len(types)),
	)
	return NewTables(reps, stages, types, divisions), nil
}

// asInt converts a scanned column value to int
func asInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int32:
		return int(t)
	case int:
		return t
	case float64:
		return int(t)
	case []byte:
		n, _ := strconv.Atoi(string(t))
		return n
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}

// asString converts a scanned column value to string
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
