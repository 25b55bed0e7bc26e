package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// SavedProperty is a profile document the user chose to keep. The document
// is stored as sent; ID and SavedDate are assigned by the store and are
// flattened into the same JSON object on output.
type SavedProperty struct {
	ID        int64
	SavedDate time.Time
	Data      map[string]any
}

// Address returns the saved document's address, if it has one.
func (p SavedProperty) Address() string {
	s, _ := p.Data["address"].(string)
	return s
}

// Field returns a top-level string value of the saved document.
func (p SavedProperty) Field(key string) string {
	switch v := p.Data[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p SavedProperty) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Data)+2)
	for k, v := range p.Data {
		out[k] = v
	}
	out["id"] = p.ID
	out["saved_date"] = p.SavedDate.Format(time.RFC3339)
	return json.Marshal(out)
}

func (p *SavedProperty) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*p = SavedProperty{Data: m}
	if v, ok := m["id"]; ok {
		n, ok := v.(float64)
		if !ok {
			return fmt.Errorf("saved property id %v is not a number", v)
		}
		p.ID = int64(n)
		delete(m, "id")
	}
	if v, ok := m["saved_date"].(string); ok {
		t, err := parseSavedDate(v)
		if err != nil {
			return fmt.Errorf("saved property %d: %w", p.ID, err)
		}
		p.SavedDate = t
		delete(m, "saved_date")
	}
	return nil
}

// Older files carry local timestamps without a zone offset.
var savedDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"}

func parseSavedDate(s string) (time.Time, error) {
	var err error
	for _, layout := range savedDateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
