package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// LoadBoostConfig reads ranking overrides from a YAML file on top of
// entities.DefaultBoostConfig. A missing file yields the defaults.
func LoadBoostConfig(path string) (entities.BoostConfig, error) {
	cfg := entities.DefaultBoostConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	if err := validateBoostConfig(cfg); err != nil {
		return cfg, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return cfg, nil
}

func validateBoostConfig(cfg entities.BoostConfig) error {
	if len(cfg.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	for _, f := range cfg.Fields {
		if f.Field == "" {
			return errors.New("field name is required")
		}
		if f.Boost < 0 {
			return fmt.Errorf("field %s: boost must not be negative", f.Field)
		}
		if f.Fuzziness != "" {
			if _, ok := parseFuzziness(f.Fuzziness); !ok {
				return fmt.Errorf("field %s: fuzziness must be auto, 0, 1 or 2", f.Field)
			}
		}
	}
	if cfg.SuccessRate.Floor <= 0 {
		return errors.New("success_rate.floor must be positive")
	}
	for _, facet := range cfg.Facets {
		if facet.Kind != entities.AggregationTerms && facet.Kind != entities.AggregationRange {
			return fmt.Errorf("facet %s: kind must be terms or range", facet.Name)
		}
		if facet.Kind == entities.AggregationRange && len(facet.Ranges) == 0 {
			return fmt.Errorf("facet %s: range facets need ranges", facet.Name)
		}
	}
	return nil
}
