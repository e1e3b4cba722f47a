// Package merge maps records between the local listing store and the remote
// table and resolves field-level conflicts.
package merge

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/iudanet/listingsync/internal/fields"
	"github.com/iudanet/listingsync/internal/models"
)

// Mapper applies the field registry to record pairs.
// A Mapper is bound to one registry for its whole life.
type Mapper struct {
	registry *fields.Registry
	logger   *slog.Logger
}

// New creates a mapper over registry.
func New(registry *fields.Registry, logger *slog.Logger) *Mapper {
	return &Mapper{
		registry: registry,
		logger:   logger,
	}
}

// Registry returns the registry the mapper was built with.
func (m *Mapper) Registry() *fields.Registry {
	return m.registry
}

// Classify tags every field of rec with its kind, in name order.
func (m *Mapper) Classify(rec *models.Record) []models.FieldValue {
	if rec == nil {
		return nil
	}

	out := make([]models.FieldValue, 0, len(rec.Fields))
	for _, name := range slices.Sorted(maps.Keys(rec.Fields)) {
		fv := models.FieldValue{
			Name:       name,
			Value:      rec.Fields[name],
			ModifiedAt: rec.FieldTime(name),
			Kind:       models.KindUnmapped,
		}
		if spec, ok := m.registry.Classify(name); ok {
			fv.Spec = &spec
			fv.Kind = models.KindOfCategory(spec.Category)
		}
		out = append(out, fv)
	}

	return out
}

// Input is a record pair to merge. Either record may be nil when the entity
// exists on one side only. The merge base is read from Local.Synced.
type Input struct {
	Local     *models.Record
	Remote    *models.Record
	Target    models.Side
	Initiator models.Side
	// Partial source carries changed fields only: a field missing from it is
	// left alone instead of being cleared on the target.
	Partial bool
}

// Result is the merged write for the target side.
type Result struct {
	// Fields values to write to the target; nil clears the field
	Fields map[string]any
	// FieldTimes modification time of every written value on its source side
	FieldTimes map[string]time.Time
	TargetSide models.Side
	// MediaRefs media fields referenced by the source, handled by the media synchronizer
	MediaRefs []string
	// Conflicts fields changed on both sides
	Conflicts []string
	// Warnings dropped fields
	Warnings          []string
	FieldsWritten     int
	FieldsSkipped     int
	ConflictsResolved int
}

// Empty reports whether nothing needs to be written.
func (r *Result) Empty() bool {
	return len(r.Fields) == 0
}

// Cleared returns the fields the write removes from the target, in name order.
func (r *Result) Cleared() []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(r.Fields)) {
		if r.Fields[name] == nil {
			out = append(out, name)
		}
	}
	return out
}

// Merge produces the write for in.Target. It has no side effects besides
// logging, so merging the same input twice yields the same result.
//
// A field the merge base knows but the source no longer has was cleared on
// the source side; it is merged as a change to nil. A missing field and a nil
// value are the same thing on both sides.
func (m *Mapper) Merge(in Input) Result {
	res := Result{
		TargetSide: in.Target,
		Fields:     make(map[string]any),
		FieldTimes: make(map[string]time.Time),
	}

	source, target := in.Remote, in.Local
	if in.Target == models.SideRemote {
		source, target = in.Local, in.Remote
	}
	if source == nil {
		return res
	}

	var base map[string]any
	if in.Local != nil {
		base = in.Local.Synced
	}

	dir := in.Target.WriteDirection()

	for _, fv := range m.candidates(source, base, in.Partial) {
		switch fv.Kind {
		case models.KindUnmapped:
			m.logger.Warn("Dropping unmapped field",
				"field", fv.Name,
				"record_id", recordKey(source),
				"target", in.Target)
			res.Warnings = append(res.Warnings, "unmapped field dropped: "+fv.Name)
			res.FieldsSkipped++
			continue
		case models.KindReadonly:
			res.FieldsSkipped++
			continue
		}

		if !m.registry.DirectionAllowed(fv.Name, dir) {
			// calculated_local при записи в local и calculated_remote при записи
			// в remote: значение другой стороны отбрасывается без ошибки
			res.FieldsSkipped++
			continue
		}

		if fv.Kind == models.KindMedia {
			// Вложения сверяет media synchronizer, очистка поля его не касается
			if fv.Value != nil {
				res.MediaRefs = append(res.MediaRefs, fv.Name)
			}
			continue
		}

		targetValue, _ := target.Value(fv.Name)
		if models.ValuesEqual(fv.Value, targetValue) {
			res.FieldsSkipped++
			continue
		}

		write := true
		if fv.Kind == models.KindManual && target != nil {
			write = m.resolveManual(fv, targetValue, target, base, in, &res)
		}

		if !write {
			res.FieldsSkipped++
			continue
		}

		res.Fields[fv.Name] = fv.Value
		res.FieldTimes[fv.Name] = fv.ModifiedAt
		res.FieldsWritten++
	}

	return res
}

// candidates returns the classified source fields plus, for a full source,
// the base fields it dropped as nil values. Unmapped base fields are never
// candidates: nothing could have written them.
func (m *Mapper) candidates(source *models.Record, base map[string]any, partial bool) []models.FieldValue {
	out := m.Classify(source)
	if partial {
		return out
	}

	for _, name := range slices.Sorted(maps.Keys(base)) {
		if _, ok := source.Fields[name]; ok || base[name] == nil {
			continue
		}
		spec, ok := m.registry.Classify(name)
		if !ok {
			continue
		}
		out = append(out, models.FieldValue{
			Name:       name,
			ModifiedAt: source.FieldTime(name),
			Kind:       models.KindOfCategory(spec.Category),
			Spec:       &spec,
		})
	}

	slices.SortFunc(out, func(a, b models.FieldValue) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// resolveManual решает судьбу manual_sync поля, значения которого различаются.
// При наличии базы односторонние изменения не считаются конфликтом.
func (m *Mapper) resolveManual(fv models.FieldValue, targetValue any, target *models.Record, base map[string]any, in Input, res *Result) bool {
	if baseValue, ok := base[fv.Name]; ok && baseValue != nil {
		sourceChanged := !models.ValuesEqual(fv.Value, baseValue)
		targetChanged := !models.ValuesEqual(targetValue, baseValue)

		switch {
		case sourceChanged && !targetChanged:
			return true
		case !sourceChanged:
			// Изменилась только целевая сторона: ее значение уйдет в обратном проходе
			return false
		}
	} else if targetValue == nil {
		return true
	} else if fv.Value == nil {
		// Поле есть только у целевой стороны: оно уйдет в обратном проходе
		return false
	}

	res.Conflicts = append(res.Conflicts, fv.Name)
	res.ConflictsResolved++

	src := version{at: fv.ModifiedAt, side: in.Target.Other()}
	dst := version{at: target.FieldTime(fv.Name), side: in.Target}
	won := winner(src, dst, in.Initiator)

	m.logger.Debug("Resolved field conflict",
		"field", fv.Name,
		"record_id", recordKey(target),
		"winner", won,
		"source_time", src.at,
		"target_time", dst.at)

	return won == src.side
}

func recordKey(rec *models.Record) string {
	if rec.ID != "" {
		return rec.ID
	}
	return rec.RemoteID
}
