package rawdata

import "time"

// Payload archives one fetched source document verbatim, keyed by the entity
// it describes. The hash lets unchanged re-scrapes be detected without
// comparing full payloads.
type Payload struct {
	Source          string
	EntityType      string
	EntityKey       string
	EventKey        string
	FighterKey      string
	PayloadJSON     string
	PayloadHash     string
	SourceUpdatedAt *time.Time
}
