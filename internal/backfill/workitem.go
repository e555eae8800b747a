package backfill

import (
	"encoding/json"
	"fmt"

	"candlefill/internal/market"

	"github.com/tidwall/gjson"
)

// Kind says whether a work item seeds a fresh series or repairs a trailing
// gap.
type Kind string

const (
	KindBootstrap Kind = "BOOTSTRAP"
	KindGapFill   Kind = "GAP_FILL"
)

// WorkItem is one bounded unit of backfill work: a single instrument,
// resolution and half-open time range [StartTS, EndTS). Items are created by
// the Discoverer, consumed once by a Worker, and re-emitted verbatim onto
// the failed-work list when fetching fails.
type WorkItem struct {
	ID         string `json:"id,omitempty"`
	Kind       Kind   `json:"kind"`
	Exchange   string `json:"exchange"`
	Instrument string `json:"instrument"`
	MarketType string `json:"market_type"`
	Resolution string `json:"resolution"`
	StartTS    int64  `json:"start_ts"`
	EndTS      int64  `json:"end_ts"`
}

// requiredFields must be present on the wire before an item is accepted.
var requiredFields = []string{"exchange", "instrument", "resolution", "start_ts", "end_ts"}

// DecodeWorkItem parses and validates a raw queue payload. A failure here
// means the item is malformed and must be discarded, never requeued.
func DecodeWorkItem(raw []byte) (WorkItem, error) {
	if !gjson.ValidBytes(raw) {
		return WorkItem{}, fmt.Errorf("work item is not valid JSON")
	}
	for _, field := range requiredFields {
		if !gjson.GetBytes(raw, field).Exists() {
			return WorkItem{}, fmt.Errorf("work item is missing required field %q", field)
		}
	}
	var item WorkItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return WorkItem{}, fmt.Errorf("decoding work item failed: %w", err)
	}
	if err := item.Validate(); err != nil {
		return WorkItem{}, err
	}
	return item, nil
}

func (w WorkItem) Validate() error {
	if w.Exchange == "" || w.Instrument == "" {
		return fmt.Errorf("work item requires exchange and instrument")
	}
	if _, ok := market.ParseResolution(w.Resolution); !ok {
		return fmt.Errorf("work item resolution %q is not parseable", w.Resolution)
	}
	if w.StartTS > w.EndTS {
		return fmt.Errorf("work item range is inverted: start_ts=%d end_ts=%d", w.StartTS, w.EndTS)
	}
	return nil
}

func (w WorkItem) Encode() ([]byte, error) {
	return json.Marshal(w)
}
