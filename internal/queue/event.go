// Package queue defines message payloads exchanged over the message broker.
package queue

// ImageCleanupEvent is published when a media-store delete fails during a
// movie edit or delete.  The database row is already gone at that point;
// the consumer's job is to retry the object removal so the media store
// does not accumulate orphans.
type ImageCleanupEvent struct {
	Filename string `json:"filename"` // object-store handle of the orphaned image
	MovieID  uint64 `json:"movie_id"` // movie the image belonged to, for logging
}
