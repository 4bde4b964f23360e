package otx

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the normalized record persisted for every fetched indicator.
// Raw carries the upstream response verbatim, untouched by normalization.
type Document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Source      string             `bson:"source"`
	IP          string             `bson:"ip"`
	Raw         bson.M             `bson:"raw"`
	IngestedAt  time.Time          `bson:"ingested_at"`
	PulseCount  int                `bson:"pulse_count"`
	IsMalicious bool               `bson:"is_malicious"`
	RunID       string             `bson:"run_id,omitempty"`
}
