package otx

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Normalize wraps a raw OTX response in the persisted document shape.
// Missing or malformed pulse data never fails normalization: the pulse
// count defaults to zero and the indicator is treated as benign.
func Normalize(raw map[string]interface{}, ip string, now time.Time) Document {
	count := pulseCount(raw)
	return Document{
		Source:      Source,
		IP:          ip,
		Raw:         bson.M(raw),
		IngestedAt:  now.UTC(),
		PulseCount:  count,
		IsMalicious: count > 0,
	}
}

// pulseCount counts the entries of pulse_info.pulses. The upstream count
// field is ignored on purpose: the stored value reflects the pulses the
// response actually carried.
func pulseCount(raw map[string]interface{}) int {
	pulseInfo, ok := raw["pulse_info"].(map[string]interface{})
	if !ok {
		return 0
	}
	pulses, ok := pulseInfo["pulses"].([]interface{})
	if !ok {
		return 0
	}
	return len(pulses)
}
