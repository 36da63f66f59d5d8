package models

import "time"

// ---------------------------------------------------------------------------
// AWS raw resource models (collected by provider, consumed by retention)
// ---------------------------------------------------------------------------

// Account is a single AWS account in scope for an audit pass.
type Account struct {
	// ID is the 12-digit AWS account ID.
	ID string `json:"id"`

	// Name is the Organizations display name. Empty in single-account mode.
	Name string `json:"name,omitempty"`

	// Status is the Organizations account status (e.g. "ACTIVE").
	// Empty in single-account mode.
	Status string `json:"status,omitempty"`
}

// InstanceSet is the set of instance IDs observed in the "running" state at
// the start of an account pass. It is built once and then only read.
type InstanceSet map[string]struct{}

// NewInstanceSet returns a set pre-populated with ids.
func NewInstanceSet(ids ...string) InstanceSet {
	s := make(InstanceSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Adding an existing id is a no-op.
func (s InstanceSet) Add(id string) { s[id] = struct{}{} }

// Contains reports whether id is in the set.
func (s InstanceSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of distinct instance IDs.
func (s InstanceSet) Len() int { return len(s) }

// Attachment links an EBS volume to the instance using it.
type Attachment struct {
	InstanceID string `json:"instance_id"`
	State      string `json:"state"`
}

// Volume is the source EBS volume of a snapshot as returned by a
// DescribeVolumes lookup.
type Volume struct {
	VolumeID    string       `json:"volume_id"`
	State       string       `json:"state"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Snapshot is a single EBS snapshot owned by the audited account.
type Snapshot struct {
	SnapshotID string `json:"snapshot_id"`

	// VolumeID is the source volume reference. Empty means the snapshot has
	// no recorded source volume.
	VolumeID string `json:"volume_id,omitempty"`

	// StartTime is the snapshot creation time. Nil when the API did not
	// report one.
	StartTime *time.Time `json:"start_time,omitempty"`

	SizeGB      int32  `json:"size_gb"`
	State       string `json:"state"`
	Description string `json:"description,omitempty"`
}
