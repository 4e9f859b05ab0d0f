package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rival-intel/internal/model"
)

// DefaultCatalog returns the built-in model allow-list. Quotas and notes
// track the provider's free-tier limits and are display metadata only; the
// server does not meter usage against them.
func DefaultCatalog() []model.ModelOption {
	return []model.ModelOption{
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", DailyQuota: "20", Note: "Severely limited"},
		{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash-Lite", DailyQuota: "1,500", Note: "Recommended for Free Tier", Default: true},
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", DailyQuota: "0 - 5", Note: "Often removed or restricted"},
	}
}

// LoadCatalog reads a model catalog from a YAML file, replacing the built-in
// allow-list. The file has a top-level "models" key:
//
//	models:
//	  - id: gemini-2.5-flash-lite
//	    name: Gemini 2.5 Flash-Lite
//	    daily: "1,500"
//	    default: true
//
// Validation (unique ids, exactly one default) happens in New, not here.
func LoadCatalog(path string) ([]model.ModelOption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read catalog %s", path)
	}

	var wrapper struct {
		Models []model.ModelOption `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "registry: parse catalog %s", path)
	}

	return wrapper.Models, nil
}
