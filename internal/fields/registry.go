// Package fields holds the static field classification of a listing: which
// fields exist, which side owns them and in which direction they may flow.
package fields

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/validation"
)

// Registry неизменяемое отображение имя поля -> FieldSpec.
// Для смены схемы создается новый Registry и подменяется через Holder.
type Registry struct {
	byName map[string]models.FieldSpec
	order  []string
}

// NewRegistry проверяет набор FieldSpec и строит реестр.
// Ошибки валидации оборачивают models.ErrFieldMappingInvalid.
func NewRegistry(specs []models.FieldSpec) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]models.FieldSpec, len(specs)),
		order:  make([]string, 0, len(specs)),
	}

	var errs []error
	for i, spec := range specs {
		if err := validateSpec(spec); err != nil {
			errs = append(errs, fmt.Errorf("field #%d: %w", i, err))
			continue
		}
		if _, dup := r.byName[spec.Name]; dup {
			errs = append(errs, fmt.Errorf("field #%d: duplicate field name %q", i, spec.Name))
			continue
		}
		r.byName[spec.Name] = spec
		r.order = append(r.order, spec.Name)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", models.ErrFieldMappingInvalid, errors.Join(errs...))
	}

	return r, nil
}

func validateSpec(spec models.FieldSpec) error {
	if err := validation.ValidateFieldName(spec.Name); err != nil {
		return err
	}
	if !spec.Category.Valid() {
		return fmt.Errorf("field %q: unknown category %q", spec.Name, spec.Category)
	}
	switch {
	case spec.Category == models.CategoryMediaSync:
		if spec.MediaType != models.MediaTypeImage && spec.MediaType != models.MediaTypeDocument {
			return fmt.Errorf("field %q: media_type must be %q or %q", spec.Name, models.MediaTypeImage, models.MediaTypeDocument)
		}
	case spec.MediaType != "":
		return fmt.Errorf("field %q: media_type is only allowed for media_sync fields", spec.Name)
	}
	return nil
}

// Classify возвращает FieldSpec поля; ok=false для полей вне схемы.
func (r *Registry) Classify(name string) (models.FieldSpec, bool) {
	spec, ok := r.byName[name]
	return spec, ok
}

// DirectionAllowed сообщает, можно ли записать поле при данном направлении.
// Для полей вне схемы всегда false.
func (r *Registry) DirectionAllowed(name string, dir models.Direction) bool {
	spec, ok := r.byName[name]
	if !ok {
		return false
	}
	return spec.Category.Allows(dir)
}

// Specs returns the specs in declaration order.
func (r *Registry) Specs() []models.FieldSpec {
	out := make([]models.FieldSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of declared fields.
func (r *Registry) Len() int {
	return len(r.order)
}

// MediaFields returns media_sync specs, optionally filtered by media type.
func (r *Registry) MediaFields(mediaTypes ...string) []models.FieldSpec {
	var out []models.FieldSpec
	for _, name := range r.order {
		spec := r.byName[name]
		if spec.Category != models.CategoryMediaSync {
			continue
		}
		if len(mediaTypes) > 0 && !slices.Contains(mediaTypes, spec.MediaType) {
			continue
		}
		out = append(out, spec)
	}
	return out
}

// Holder хранит текущий Registry. Задача читает реестр один раз при старте
// и работает с ним до конца, поэтому замена не влияет на идущую задачу.
type Holder struct {
	current atomic.Pointer[Registry]
}

// NewHolder creates a holder with an initial registry.
func NewHolder(r *Registry) *Holder {
	h := &Holder{}
	h.current.Store(r)
	return h
}

// Get returns the current registry.
func (h *Holder) Get() *Registry {
	return h.current.Load()
}

// Swap replaces the current registry.
func (h *Holder) Swap(r *Registry) {
	h.current.Store(r)
}
