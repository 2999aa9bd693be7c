package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Backend method names.
const (
	MethodModPreview = "mod_preview"
	MethodReg        = "reg"
	MethodUserInfo   = "user_info"
	MethodMods       = "mods"
)

// ModPreview asks the backend for the canonical preview of a module.
func (c *Client) ModPreview(ctx context.Context, url, key string, collateral float64) (ModPreview, error) {
	var preview ModPreview
	err := c.Call(ctx, MethodModPreview, PreviewRequest{URL: url, Key: key, Collateral: collateral}, &preview)
	if err != nil {
		return nil, err
	}
	if len(preview) == 0 || string(preview) == "null" {
		return nil, fmt.Errorf("backend returned an empty preview")
	}
	return preview, nil
}

// Register submits a signed preview and returns the created module. The
// backend reply may be partial; missing fields are left zero.
func (c *Client) Register(ctx context.Context, info RegInfo) (*Module, json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, MethodReg, RegisterRequest{Mod: info}, &raw); err != nil {
		return nil, nil, err
	}
	mod := &Module{}
	// non-object replies (e.g. a bare tx hash) are returned raw only
	_ = json.Unmarshal(raw, mod)
	return mod, raw, nil
}

// RegisterName registers a module by name with the given take percentage.
func (c *Client) RegisterName(ctx context.Context, name string, take int) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, MethodReg, RegisterNameRequest{Name: name, Take: take}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// UserInfo fetches the user record for key.
func (c *Client) UserInfo(ctx context.Context, key string) (*User, error) {
	var user User
	if err := c.Call(ctx, MethodUserInfo, UserInfoRequest{Key: key}, &user); err != nil {
		return nil, err
	}
	if user.Key == "" {
		user.Key = key
	}
	return &user, nil
}

// Mods lists registered modules.
func (c *Client) Mods(ctx context.Context, req ModsRequest) ([]Module, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, MethodMods, req, &raw); err != nil {
		return nil, err
	}

	var mods []Module
	if err := json.Unmarshal(raw, &mods); err == nil {
		return mods, nil
	}
	// some backends wrap the page: {"mods": [...]}
	var page struct {
		Mods []Module `json:"mods"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to parse mods: %w", err)
	}
	return page.Mods, nil
}
