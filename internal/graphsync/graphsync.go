package graphsync

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Edge is the normalized payload sent to the external graph sync. Metadata
// keys are flattened into the JSON object alongside the fixed fields.
type Edge struct {
	Source    string
	Target    string
	Type      string
	CreatedAt int64 // epoch milliseconds
	Metadata  map[string]any
}

func (e Edge) MarshalJSON() ([]byte, error) {
	payload := map[string]any{
		"source":    e.Source,
		"target":    e.Target,
		"type":      e.Type,
		"createdAt": e.CreatedAt,
	}
	for k, v := range e.Metadata {
		payload[k] = v
	}
	return json.Marshal(payload)
}

// PrepareEdge sanitizes a relationship into a graph-edge payload. A zero
// timestamp falls back to now.
func PrepareEdge(source, target, relType string, createdAt time.Time, metadata map[string]any) Edge {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return Edge{
		Source:    source,
		Target:    target,
		Type:      relType,
		CreatedAt: createdAt.UnixMilli(),
		Metadata:  metadata,
	}
}

// Syncer emits graph edges. The sync is currently log-only; the emitted JSON
// is the contract for the eventual graph database push.
type Syncer struct{}

func NewSyncer() *Syncer {
	return &Syncer{}
}

// OnFollow handles creation of a follow record between two users.
func (s *Syncer) OnFollow(userID, targetUserID string, createdAt time.Time) error {
	if userID == "" || targetUserID == "" {
		return fmt.Errorf("invalid follow record: missing user ids")
	}
	return s.emit("FOLLOW", PrepareEdge(userID, targetUserID, "FOLLOWS", createdAt, nil))
}

// OnLike handles creation of a like record.
func (s *Syncer) OnLike(userID, contentID string, createdAt time.Time) error {
	if userID == "" || contentID == "" {
		return fmt.Errorf("invalid like record: missing userId or contentId")
	}
	return s.emit("LIKE", PrepareEdge(userID, contentID, "LIKES", createdAt, nil))
}

// OnRemix handles creation of a remix record referencing original content.
func (s *Syncer) OnRemix(userID, originalContentID, remixContentID string, createdAt time.Time) error {
	if userID == "" || originalContentID == "" {
		return fmt.Errorf("invalid remix record: missing userId or originalContentId")
	}
	edge := PrepareEdge(userID, originalContentID, "REMIXED", createdAt, map[string]any{
		"remixContentId": remixContentID,
	})
	return s.emit("REMIX", edge)
}

func (s *Syncer) emit(kind string, edge Edge) error {
	payload, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("failed to marshal %s edge: %w", kind, err)
	}
	slog.Info("Graph sync edge.", "kind", kind, "payload", string(payload))
	return nil
}
