package api

// API Client-
//
// Files:
//   config.go    - endpoint defaults and client options
//   types.go     - Struct definitions (module, user, preview, errors)
//   base.go      - Core client functionality (client struct, Call, auth headers)
//   modules.go   - Registry calls (mod_preview, reg, user_info, mods)
//
// Usage:
//   client := api.NewClient(endpoint, api.WithKey(key))    // from base.go
//   preview, err := client.ModPreview(ctx, url, key, 1.5)  // from modules.go
//   var out map[string]any
//   err = client.Call(ctx, "user_info", params, &out)      // from base.go
