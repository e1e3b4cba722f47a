package models

import (
	"bytes"
	"encoding/json"
	"maps"
	"time"
)

// Record представляет одно объявление (listing) на любой из сторон синхронизации.
// На локальной стороне ID заполнен всегда, RemoteID после первой выгрузки.
// На удаленной стороне ID пустой, пока запись не сопоставлена с локальной.
type Record struct {
	ModifiedAt    time.Time            `json:"modified_at"`    // время последнего изменения записи целиком
	CreatedAt     time.Time            `json:"created_at"`     // время создания
	Fields        map[string]any       `json:"fields"`         // значения полей (JSON-совместимые)
	FieldModified map[string]time.Time `json:"field_modified"` // время изменения отдельных полей (если известно)
	Synced        map[string]any       `json:"synced"`         // последнее согласованное значение поля (база 3-way merge)
	ID            string               `json:"id"`             // локальный идентификатор
	RemoteID      string               `json:"remote_id"`      // идентификатор строки в remote store
}

// FieldTime returns the field-level modification time when known, falling back
// to the record-level time.
func (r *Record) FieldTime(name string) time.Time {
	if r == nil {
		return time.Time{}
	}
	if ts, ok := r.FieldModified[name]; ok && !ts.IsZero() {
		return ts
	}
	return r.ModifiedAt
}

// Value returns the value of a field and whether the record has it.
func (r *Record) Value(name string) (any, bool) {
	if r == nil || r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	return v, ok
}

// Clone создает глубокую копию записи (значения полей копируются поверхностно,
// так как они трактуются как неизменяемые).
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Fields = maps.Clone(r.Fields)
	c.FieldModified = maps.Clone(r.FieldModified)
	c.Synced = maps.Clone(r.Synced)
	return &c
}

// IsNewerThan сравнивает записи по времени изменения (Last-Write-Wins).
func (r *Record) IsNewerThan(other *Record) bool {
	if other == nil {
		return true
	}
	return r.ModifiedAt.After(other.ModifiedAt)
}

// ValuesEqual compares two JSON-compatible values by their canonical JSON encoding.
// encoding/json sorts map keys, so maps with the same content compare equal and
// numbers compare by value regardless of their Go type.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
