// Package retention decides whether an EBS snapshot may be reclaimed and
// executes the guarded delete for snapshots that may.
//
// Classification is split in two: Evaluate is a pure function of the
// snapshot, the volume lookup outcome, the running-instance set and the
// cutoff; Classifier wraps it with the single volume lookup a snapshot may
// need. Neither ever mutates cloud state. The only mutating call lives in
// GuardedDeleter.
package retention

import (
	"context"
	"errors"
	"time"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// DefaultRetentionDays is the age below which a snapshot is always kept.
const DefaultRetentionDays = 7

// MaxRetentionDays is the largest accepted retention window (100 years).
// Longer windows are clamped.
const MaxRetentionDays = 36500

// ErrVolumeNotFound is returned (possibly wrapped) by a VolumeLookup when the
// source volume no longer exists.
var ErrVolumeNotFound = errors.New("volume not found")

// VolumeLookup resolves a snapshot's source volume.
type VolumeLookup interface {
	// LookupVolume returns the volume with the given ID, or an error wrapping
	// ErrVolumeNotFound when it does not exist.
	LookupVolume(ctx context.Context, volumeID string) (*models.Volume, error)
}

// VolumeStatus is the outcome class of a source-volume lookup.
type VolumeStatus int

const (
	// VolumeUnchecked means no lookup was performed.
	VolumeUnchecked VolumeStatus = iota
	VolumeFound
	VolumeMissing
	VolumeLookupFailed
)

// VolumeResult carries a lookup outcome into Evaluate.
type VolumeResult struct {
	Status VolumeStatus
	Volume *models.Volume
	Err    error
}

// ResultFromLookup converts the return values of VolumeLookup.LookupVolume
// into a VolumeResult.
func ResultFromLookup(vol *models.Volume, err error) VolumeResult {
	switch {
	case errors.Is(err, ErrVolumeNotFound):
		return VolumeResult{Status: VolumeMissing, Err: err}
	case err != nil:
		return VolumeResult{Status: VolumeLookupFailed, Err: err}
	case vol == nil:
		return VolumeResult{Status: VolumeMissing, Err: ErrVolumeNotFound}
	default:
		return VolumeResult{Status: VolumeFound, Volume: vol}
	}
}

// Cutoff returns the instant a snapshot must be created after to count as
// too young. It is computed once per account pass. days is clamped to
// MaxRetentionDays so the cutoff can never move past now.
func Cutoff(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	if days > MaxRetentionDays {
		days = MaxRetentionDays
	}
	return now.AddDate(0, 0, -days)
}

// IsTooYoung reports whether snap was created strictly after cutoff. A
// snapshot without a creation time is never too young.
func IsTooYoung(snap models.Snapshot, cutoff time.Time) bool {
	return snap.StartTime != nil && snap.StartTime.After(cutoff)
}

// Evaluate applies the retention checks in order, stopping at the first that
// decides:
//
//  1. created after cutoff                 → keep "too young"
//  2. no source volume reference           → delete "no source volume"
//  3. source volume not found              → delete "source volume deleted"
//     lookup failed for any other reason   → skip-error (error text)
//     volume has no attachments            → delete "volume detached"
//     any attachment to a running instance → keep "in active use"
//     otherwise                            → keep "attached but instance not running"
//
// A delete verdict here only means "eligible"; GuardedDeleter decides whether
// the deletion actually happens. vol is ignored when steps 1 or 2 decide.
func Evaluate(snap models.Snapshot, vol VolumeResult, running models.InstanceSet, cutoff time.Time) models.Verdict {
	v := models.Verdict{
		SnapshotID: snap.SnapshotID,
		VolumeID:   snap.VolumeID,
		SizeGB:     snap.SizeGB,
	}

	if IsTooYoung(snap, cutoff) {
		return keep(v, models.ReasonTooYoung)
	}
	if snap.VolumeID == "" {
		return eligible(v, models.ReasonNoSourceVolume)
	}

	switch vol.Status {
	case VolumeMissing:
		return eligible(v, models.ReasonSourceVolumeGone)
	case VolumeFound:
	case VolumeLookupFailed:
		v.Kind = models.VerdictSkipError
		v.Reason = errorText(vol.Err, "volume lookup failed")
		return v
	default:
		v.Kind = models.VerdictSkipError
		v.Reason = "source volume was not looked up"
		return v
	}

	if vol.Volume == nil || len(vol.Volume.Attachments) == 0 {
		return eligible(v, models.ReasonVolumeDetached)
	}
	for _, att := range vol.Volume.Attachments {
		if running.Contains(att.InstanceID) {
			return keep(v, models.ReasonInActiveUse)
		}
	}
	// Attached only to instances that are not running.
	return keep(v, models.ReasonAttachedNotRunning)
}

// Classifier binds the per-pass inputs of Evaluate and performs the volume
// lookup when one is needed.
type Classifier struct {
	Running models.InstanceSet
	Cutoff  time.Time
	Volumes VolumeLookup
}

// Classify returns the retention verdict for snap. LookupVolume is called at
// most once, and only when the age and volume-reference checks did not
// already decide.
func (c *Classifier) Classify(ctx context.Context, snap models.Snapshot) models.Verdict {
	if IsTooYoung(snap, c.Cutoff) || snap.VolumeID == "" {
		return Evaluate(snap, VolumeResult{}, c.Running, c.Cutoff)
	}
	vol, err := c.Volumes.LookupVolume(ctx, snap.VolumeID)
	return Evaluate(snap, ResultFromLookup(vol, err), c.Running, c.Cutoff)
}

func keep(v models.Verdict, reason string) models.Verdict {
	v.Kind = models.VerdictKeep
	v.Reason = reason
	return v
}

func eligible(v models.Verdict, reason string) models.Verdict {
	v.Kind = models.VerdictDelete
	v.Reason = reason
	return v
}

func errorText(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}
