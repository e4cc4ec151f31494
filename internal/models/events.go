package models

import (
	"strings"
	"time"
)

// GCSEvent is the payload of a Cloud Storage object event.
type GCSEvent struct {
	Bucket   string            `json:"bucket"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// FirestoreEvent is the payload of a Firestore document-written trigger,
// carrying before/after snapshots. This is the 1st-gen Cloud Functions JSON
// encoding; 2nd-gen Eventarc triggers deliver protobuf-encoded
// DocumentEventData and would need the googleapis events types instead.
type FirestoreEvent struct {
	Value    FirestoreDocument `json:"value"`
	OldValue FirestoreDocument `json:"oldValue"`
}

// FirestoreDocument is one snapshot inside a FirestoreEvent. Name is the full
// resource name; an empty Name in Value means the document was deleted.
type FirestoreDocument struct {
	Name       string                    `json:"name"`
	Fields     map[string]FirestoreValue `json:"fields"`
	CreateTime time.Time                 `json:"createTime"`
	UpdateTime time.Time                 `json:"updateTime"`
}

// FirestoreValue carries the typed field encodings the trigger payload uses.
type FirestoreValue struct {
	StringValue    string    `json:"stringValue"`
	TimestampValue time.Time `json:"timestampValue"`
}

// Exists reports whether the snapshot holds a live document.
func (d FirestoreDocument) Exists() bool {
	return d.Name != ""
}

// Path returns the document path relative to the database root, e.g.
// "fanzines/abc/pages/xyz".
func (d FirestoreDocument) Path() []string {
	const marker = "/documents/"
	idx := strings.Index(d.Name, marker)
	if idx < 0 {
		return nil
	}
	return strings.Split(d.Name[idx+len(marker):], "/")
}

// StringField returns the string value of a field, if present.
func (d FirestoreDocument) StringField(key string) string {
	return d.Fields[key].StringValue
}

// TimeField returns the timestamp value of a field, if present.
func (d FirestoreDocument) TimeField(key string) time.Time {
	return d.Fields[key].TimestampValue
}
