// Package feed reconciles submitted bulk feeds: it polls the marketplace
// until the feed settles, decodes the result document and fans per-line
// outcomes back into item state.
package feed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/channelsync/sync-service/internal/marketplace"
	"github.com/channelsync/sync-service/internal/storage"
)

// DecodeResultLines decodes a raw feed result document into result lines.
// Documents arrive gzipped or plain, and single-line reports flip between a
// bare object and an array-of-one depending on the marketplace's XML/JSON
// conversion, so both shapes are normalized to a slice.
func DecodeResultLines(raw []byte) ([]marketplace.ResultLine, error) {
	doc, err := storage.MaybeGunzip(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress feed result: %w", err)
	}

	doc = bytes.TrimSpace(doc)
	if len(doc) == 0 {
		return nil, nil
	}

	if doc[0] == '[' {
		var lines []marketplace.ResultLine
		if err := json.Unmarshal(doc, &lines); err != nil {
			return nil, fmt.Errorf("failed to decode feed result array: %w", err)
		}
		return lines, nil
	}

	var line marketplace.ResultLine
	if err := json.Unmarshal(doc, &line); err != nil {
		return nil, fmt.Errorf("failed to decode feed result object: %w", err)
	}
	return []marketplace.ResultLine{line}, nil
}
