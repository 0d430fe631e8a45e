package ynab

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// NullString is a patch value for a nullable string field. Valid=true sets
// the field to Value; Valid=false clears it. This mirrors sql.NullString so
// "set to null" is never confused with "leave unchanged" (which is a nil
// *NullString in a Patch).
type NullString struct {
	Valid bool
	Value string
}

// String returns a patch value that sets a field to s.
func String(s string) *NullString {
	return &NullString{Valid: true, Value: s}
}

// Null returns a patch value that clears a field.
func Null() *NullString {
	return &NullString{}
}

// MarshalJSON emits the wrapped string, or null when clearing.
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts a string or null. Called for explicit nulls too, so
// a journaled "clear this field" entry round-trips intact.
func (n *NullString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = NullString{}
		return nil
	}
	n.Valid = true
	return json.Unmarshal(data, &n.Value)
}

// Equal reports whether two patch values describe the same change.
func (n *NullString) Equal(other *NullString) bool {
	if n == nil || other == nil {
		return n == other
	}
	if !n.Valid || !other.Valid {
		return n.Valid == other.Valid
	}
	return n.Value == other.Value
}

// Patch is a sparse set of field-level changes to one transaction. A nil
// field leaves the remote value unchanged; for nullable fields a
// Valid=false NullString clears it. Patches are the unit exchanged between
// the mutation service, the client, and the journal.
type Patch struct {
	Memo       *NullString `json:"memo,omitempty"`
	PayeeName  *NullString `json:"payee_name,omitempty"`
	CategoryID *NullString `json:"category_id,omitempty"`
	FlagColor  *NullString `json:"flag_color,omitempty"`
	Cleared    *string     `json:"cleared,omitempty"`
	Approved   *bool       `json:"approved,omitempty"`
	Amount     *int64      `json:"amount,omitempty"`
	Date       *string     `json:"date,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Memo == nil &&
		p.PayeeName == nil &&
		p.CategoryID == nil &&
		p.FlagColor == nil &&
		p.Cleared == nil &&
		p.Approved == nil &&
		p.Amount == nil &&
		p.Date == nil
}

// FieldNames returns the names of the fields the patch touches, in a fixed
// order. Used for logging and command output.
func (p Patch) FieldNames() []string {
	var names []string
	if p.Memo != nil {
		names = append(names, "memo")
	}
	if p.PayeeName != nil {
		names = append(names, "payee_name")
	}
	if p.CategoryID != nil {
		names = append(names, "category_id")
	}
	if p.FlagColor != nil {
		names = append(names, "flag_color")
	}
	if p.Cleared != nil {
		names = append(names, "cleared")
	}
	if p.Approved != nil {
		names = append(names, "approved")
	}
	if p.Amount != nil {
		names = append(names, "amount")
	}
	if p.Date != nil {
		names = append(names, "date")
	}
	return names
}

// Validate checks enum domains and formats before anything is sent to the
// API. A patch that fails validation must never reach the network.
func (p Patch) Validate() error {
	if p.Cleared != nil {
		switch *p.Cleared {
		case ClearedCleared, ClearedUncleared, ClearedReconciled:
		default:
			return fmt.Errorf("invalid cleared state %q", *p.Cleared)
		}
	}
	if p.FlagColor != nil && p.FlagColor.Valid {
		if !slices.Contains(FlagColors, p.FlagColor.Value) {
			return fmt.Errorf("invalid flag color %q", p.FlagColor.Value)
		}
	}
	if p.Date != nil {
		if _, err := time.Parse("2006-01-02", *p.Date); err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", *p.Date)
		}
	}
	if p.CategoryID != nil && p.CategoryID.Valid && p.CategoryID.Value == "" {
		return fmt.Errorf("category_id must not be empty; use an explicit clear to uncategorize")
	}
	return nil
}

// UnmarshalJSON decodes a patch from JSON, preserving the difference
// between an absent key (field untouched) and an explicit null (field
// cleared). The standard decoder would set a *NullString field to nil on a
// literal null, which is exactly the distinction a journaled patch must
// keep.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Patch{}
	for key, val := range raw {
		var err error
		switch key {
		case "memo":
			p.Memo, err = decodeNullString(val)
		case "payee_name":
			p.PayeeName, err = decodeNullString(val)
		case "category_id":
			p.CategoryID, err = decodeNullString(val)
		case "flag_color":
			p.FlagColor, err = decodeNullString(val)
		case "cleared":
			p.Cleared, err = decodeScalar[string](val)
		case "approved":
			p.Approved, err = decodeScalar[bool](val)
		case "amount":
			p.Amount, err = decodeScalar[int64](val)
		case "date":
			p.Date, err = decodeScalar[string](val)
		}
		if err != nil {
			return fmt.Errorf("patch field %s: %w", key, err)
		}
	}
	return nil
}

func decodeNullString(data []byte) (*NullString, error) {
	ns := &NullString{}
	if err := ns.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return ns, nil
}

func decodeScalar[T any](data []byte) (*T, error) {
	// Non-nullable fields; a null here is treated as untouched.
	if bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Equal reports whether two patches describe the same set of changes.
func (p Patch) Equal(other Patch) bool {
	return p.Memo.Equal(other.Memo) &&
		p.PayeeName.Equal(other.PayeeName) &&
		p.CategoryID.Equal(other.CategoryID) &&
		p.FlagColor.Equal(other.FlagColor) &&
		ptrEqual(p.Cleared, other.Cleared) &&
		ptrEqual(p.Approved, other.Approved) &&
		ptrEqual(p.Amount, other.Amount) &&
		ptrEqual(p.Date, other.Date)
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
