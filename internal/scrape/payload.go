package scrape

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/rawdata"
)

// NewPayload archives one fetched document verbatim. The content hash lets
// unchanged re-scrapes be recognized without comparing full payloads.
func NewPayload(source, entityType, entityKey string, body []byte) rawdata.Payload {
	sum := sha256.Sum256(body)
	return rawdata.Payload{
		Source:      source,
		EntityType:  entityType,
		EntityKey:   entityKey,
		PayloadJSON: string(body),
		PayloadHash: hex.EncodeToString(sum[:]),
	}
}
