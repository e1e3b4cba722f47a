package fields

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/listingsync/internal/models"
)

// schemaFile формат YAML-файла схемы полей
type schemaFile struct {
	Fields []models.FieldSpec `yaml:"fields"`
}

// DefaultListingSchema возвращает схему полей объявления по умолчанию.
func DefaultListingSchema() []models.FieldSpec {
	manual := []string{
		"title", "description", "price", "status", "address", "city", "state",
		"postal_code", "bedrooms", "bathrooms", "square_feet", "lot_size",
		"year_built", "property_type", "agent_name", "agent_email", "mls_number",
	}

	specs := make([]models.FieldSpec, 0, 32)
	for _, name := range manual {
		specs = append(specs, models.FieldSpec{Name: name, Category: models.CategoryManualSync})
	}

	specs = append(specs,
		models.FieldSpec{Name: "price_per_sqft", Category: models.CategoryCalculatedLocal},
		models.FieldSpec{Name: "permalink", Category: models.CategoryCalculatedLocal},
		models.FieldSpec{Name: "local_updated_at", Category: models.CategoryCalculatedLocal},

		models.FieldSpec{Name: "lead_score", Category: models.CategoryCalculatedRemote},
		models.FieldSpec{Name: "market_segment", Category: models.CategoryCalculatedRemote},
		models.FieldSpec{Name: "airtable_url", Category: models.CategoryCalculatedRemote},

		models.FieldSpec{Name: "featured_image", Category: models.CategoryMediaSync, MediaType: models.MediaTypeImage},
		models.FieldSpec{Name: "gallery", Category: models.CategoryMediaSync, MediaType: models.MediaTypeImage},
		models.FieldSpec{Name: "floor_plan", Category: models.CategoryMediaSync, MediaType: models.MediaTypeDocument},
		models.FieldSpec{Name: "brochure", Category: models.CategoryMediaSync, MediaType: models.MediaTypeDocument},

		models.FieldSpec{Name: "created_time", Category: models.CategoryReadonly},
		models.FieldSpec{Name: "record_id", Category: models.CategoryReadonly},
	)

	return specs
}

// ParseYAML разбирает схему полей из YAML.
//
//	fields:
//	  - name: price
//	    category: manual_sync
//	  - name: gallery
//	    category: media_sync
//	    media_type: image
func ParseYAML(data []byte) ([]models.FieldSpec, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse field schema: %w", err)
	}
	if len(f.Fields) == 0 {
		return nil, fmt.Errorf("%w: schema declares no fields", models.ErrFieldMappingInvalid)
	}
	return f.Fields, nil
}

// LoadFile читает схему полей из файла и строит Registry.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field schema %s: %w", path, err)
	}

	specs, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}

	return NewRegistry(specs)
}

// MarshalYAML сериализует набор FieldSpec в формат файла схемы.
func MarshalYAML(specs []models.FieldSpec) ([]byte, error) {
	data, err := yaml.Marshal(schemaFile{Fields: specs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field schema: %w", err)
	}
	return data, nil
}
