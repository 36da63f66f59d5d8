package models

// VerdictKind is the retention decision reached for a snapshot.
type VerdictKind string

const (
	VerdictKeep      VerdictKind = "keep"
	VerdictDelete    VerdictKind = "delete"
	VerdictSkipError VerdictKind = "skip-error"
)

// Reason strings are logged verbatim and used as metric label values.
const (
	ReasonTooYoung           = "too young"
	ReasonNoSourceVolume     = "no source volume"
	ReasonSourceVolumeGone   = "source volume deleted"
	ReasonVolumeDetached     = "volume detached"
	ReasonInActiveUse        = "in active use"
	ReasonAttachedNotRunning = "attached but instance not running"
)

// Verdict is the outcome of classifying one snapshot.
//
// Before the guarded delete runs, Kind == VerdictDelete means "eligible for
// deletion". After it runs, VerdictDelete with Committed == true means the
// snapshot was actually removed.
type Verdict struct {
	SnapshotID string      `json:"snapshot_id"`
	VolumeID   string      `json:"volume_id,omitempty"`
	Kind       VerdictKind `json:"kind"`

	// Reason is the human-auditable explanation. For VerdictSkipError it
	// holds the error detail.
	Reason string `json:"reason"`

	// Basis is the eligibility reason a skip-error replaced, e.g.
	// "volume detached" when the dry-run probe was denied. Empty otherwise.
	Basis string `json:"basis,omitempty"`

	// Committed is true only when the real delete request succeeded.
	Committed bool `json:"committed"`

	SizeGB int32 `json:"size_gb"`
}
