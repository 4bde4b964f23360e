package netcalc

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the normalized record persisted for every NetworkCalc lookup.
// Raw carries the upstream response verbatim.
type Document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Source    string             `bson:"source"`
	Input     string             `bson:"input"`
	Raw       bson.M             `bson:"raw"`
	FetchedAt time.Time          `bson:"fetched_at"`
	RunID     string             `bson:"run_id,omitempty"`
}

// Normalize wraps a raw NetworkCalc response in the persisted document
// shape. The source tag is the lookup mode that produced the response.
func Normalize(raw map[string]interface{}, mode, input string, now time.Time) Document {
	return Document{
		Source:    mode,
		Input:     input,
		Raw:       bson.M(raw),
		FetchedAt: now.UTC(),
	}
}
