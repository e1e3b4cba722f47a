package models

import "time"

// Category classifies a field by which side of the sync is authoritative for it.
type Category string

const (
	CategoryManualSync       Category = "manual_sync"       // editable on both sides, last writer wins
	CategoryCalculatedLocal  Category = "calculated_local"  // computed locally, pushed to remote only
	CategoryCalculatedRemote Category = "calculated_remote" // computed remotely, pulled to local only
	CategoryMediaSync        Category = "media_sync"        // attachments, reconciled by the media synchronizer
	CategoryReadonly         Category = "readonly"          // display only, never written
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryManualSync, CategoryCalculatedLocal, CategoryCalculatedRemote,
		CategoryMediaSync, CategoryReadonly:
		return true
	}
	return false
}

// Allows reports whether a field of this category may be written when data
// flows in the given direction.
func (c Category) Allows(d Direction) bool {
	switch c {
	case CategoryManualSync, CategoryMediaSync:
		return d == DirectionLocalToRemote || d == DirectionRemoteToLocal || d == DirectionBoth
	case CategoryCalculatedLocal:
		return d == DirectionLocalToRemote
	case CategoryCalculatedRemote:
		return d == DirectionRemoteToLocal
	default:
		return false
	}
}

// Direction describes which way data flows during a sync.
type Direction string

const (
	DirectionLocalToRemote Direction = "local_to_remote"
	DirectionRemoteToLocal Direction = "remote_to_local"
	DirectionBoth          Direction = "both"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionLocalToRemote || d == DirectionRemoteToLocal || d == DirectionBoth
}

// Side identifies one endpoint of the sync.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideLocal {
		return SideRemote
	}
	return SideLocal
}

// WriteDirection returns the direction of a write whose target is s.
func (s Side) WriteDirection() Direction {
	if s == SideRemote {
		return DirectionLocalToRemote
	}
	return DirectionRemoteToLocal
}

// SourceSide returns the side data is read from for a single-direction sync.
func (d Direction) SourceSide() Side {
	if d == DirectionRemoteToLocal {
		return SideRemote
	}
	return SideLocal
}

// Media types handled by media_sync fields.
const (
	MediaTypeImage    = "image"
	MediaTypeDocument = "document"
)

// FieldSpec declares how a single field is synchronized.
type FieldSpec struct {
	Name      string   `json:"name" yaml:"name" validate:"required"`
	Category  Category `json:"category" yaml:"category" validate:"required"`
	MediaType string   `json:"media_type,omitempty" yaml:"media_type,omitempty"`
	Label     string   `json:"label,omitempty" yaml:"label,omitempty"`
}

// FieldKind is the tag of a classified field value. It mirrors Category plus an
// explicit variant for fields that have no FieldSpec.
type FieldKind int

const (
	KindUnmapped FieldKind = iota
	KindManual
	KindCalculatedLocal
	KindCalculatedRemote
	KindMedia
	KindReadonly
)

// KindOfCategory maps a category to its tag.
func KindOfCategory(c Category) FieldKind {
	switch c {
	case CategoryManualSync:
		return KindManual
	case CategoryCalculatedLocal:
		return KindCalculatedLocal
	case CategoryCalculatedRemote:
		return KindCalculatedRemote
	case CategoryMediaSync:
		return KindMedia
	case CategoryReadonly:
		return KindReadonly
	default:
		return KindUnmapped
	}
}

func (k FieldKind) String() string {
	switch k {
	case KindManual:
		return string(CategoryManualSync)
	case KindCalculatedLocal:
		return string(CategoryCalculatedLocal)
	case KindCalculatedRemote:
		return string(CategoryCalculatedRemote)
	case KindMedia:
		return string(CategoryMediaSync)
	case KindReadonly:
		return string(CategoryReadonly)
	default:
		return "unmapped"
	}
}

// FieldValue is one field of a record after classification.
// Spec is nil when Kind is KindUnmapped.
type FieldValue struct {
	ModifiedAt time.Time
	Value      any
	Spec       *FieldSpec
	Name       string
	Kind       FieldKind
}
