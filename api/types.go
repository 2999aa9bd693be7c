package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Module is a registered artifact as returned by the backend.
type Module struct {
	Name       string          `json:"name"`
	Key        string          `json:"key"`
	Desc       string          `json:"desc,omitempty"`
	Cid        string          `json:"cid,omitempty"`
	URL        string          `json:"url,omitempty"`
	Collateral decimal.Decimal `json:"collateral"`
	Created    int64           `json:"created,omitempty"`
	Updated    int64           `json:"updated,omitempty"`
	Balance    decimal.Decimal `json:"balance"`
}

// User is the result of user_info.
type User struct {
	Key     string          `json:"key"`
	Address string          `json:"address,omitempty"`
	Balance decimal.Decimal `json:"balance"`
	Mods    []Module        `json:"mods"`
}

// ModPreview is the server's preview of a module, kept as raw JSON so its
// key order survives until it is canonicalized for signing.
type ModPreview json.RawMessage

// MarshalJSON emits the preview unchanged.
func (p ModPreview) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON keeps a copy of the raw preview.
func (p *ModPreview) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// Fields decodes the preview into a generic map for display.
func (p ModPreview) Fields() (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal(p, &out); err != nil {
		return nil, fmt.Errorf("failed to parse preview: %w", err)
	}
	return out, nil
}

// RegInfo is a preview together with the signature over it. It serializes
// as the preview object with a "signature" field added.
type RegInfo struct {
	Preview   ModPreview
	Signature string
}

// MarshalJSON merges the signature into the preview object the way
// {...preview, signature} would: key order kept, an existing signature
// replaced in place, otherwise appended last.
func (r RegInfo) MarshalJSON() ([]byte, error) {
	if len(r.Preview) == 0 {
		r.Preview = ModPreview(`{}`)
	}
	v, err := decodeOrdered(r.Preview)
	if err != nil {
		return nil, fmt.Errorf("invalid preview: %w", err)
	}
	obj, ok := v.(*orderedObject)
	if !ok {
		return nil, fmt.Errorf("preview is not a JSON object")
	}
	obj.set("signature", r.Signature)

	var buf bytes.Buffer
	if err := encodeCanonical(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PreviewRequest is the mod_preview params object.
type PreviewRequest struct {
	URL        string  `json:"url"`
	Key        string  `json:"key"`
	Collateral float64 `json:"collateral"`
}

// RegisterRequest is the reg{mod} params object.
type RegisterRequest struct {
	Mod RegInfo `json:"mod"`
}

// RegisterNameRequest is the reg{name, take} params object.
type RegisterNameRequest struct {
	Name string `json:"name"`
	Take int    `json:"take"`
}

// UserInfoRequest is the user_info params object.
type UserInfoRequest struct {
	Key string `json:"key"`
}

// ModsRequest is the mods params object.
type ModsRequest struct {
	Search   string `json:"search,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// Error is a failed backend call.
type Error struct {
	Method  string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed with status %d: %s", e.Method, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Method, e.Message)
}
