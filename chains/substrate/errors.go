package substrate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ErrorMeta describes one pallet error.
type ErrorMeta struct {
	Name string
	Docs string
}

// PalletErrors is the error list of a pallet, indexed by error index.
type PalletErrors struct {
	Name   string
	Errors []ErrorMeta
}

// ErrorTable maps pallet indices to their errors.
type ErrorTable map[uint8]PalletErrors

// DefaultErrorTable covers the pallets a balance transfer can fail in.
func DefaultErrorTable() ErrorTable {
	return ErrorTable{
		0: {Name: "system", Errors: []ErrorMeta{
			{"InvalidSpecName", "The name of specification does not match between the current runtime and the new runtime."},
			{"SpecVersionNeedsToIncrease", "The specification version is not allowed to decrease between the current runtime and the new runtime."},
			{"FailedToExtractRuntimeVersion", "Failed to extract the runtime version from the new runtime."},
			{"NonDefaultComposite", "Suicide called when the account has non-default composite data."},
			{"NonZeroRefCount", "There is a non-zero reference count preventing the account from being purged."},
			{"CallFiltered", "The origin filter prevent the call to be dispatched."},
			{"MultiBlockMigrationsOngoing", "A multi-block migration is ongoing and prevents the current code from being replaced."},
			{"NothingAuthorized", "No upgrade authorized."},
			{"Unauthorized", "The submitted code is not authorized."},
		}},
		DefaultBalancesPallet: {Name: "balances", Errors: []ErrorMeta{
			{"VestingBalance", "Vesting balance too high to send value."},
			{"LiquidityRestrictions", "Account liquidity restrictions prevent withdrawal."},
			{"InsufficientBalance", "Balance too low to send value."},
			{"ExistentialDeposit", "Value too low to create account due to existential deposit."},
			{"Expendability", "Transfer/payment would kill account."},
			{"ExistingVestingSchedule", "A vesting schedule already exists for this account."},
			{"DeadAccount", "Beneficiary account must pre-exist."},
			{"TooManyReserves", "Number of named reserves exceed `MaxReserves`."},
			{"TooManyHolds", "Number of holds exceed `VariantCountOf<T::RuntimeHoldReason>`."},
			{"TooManyFreezes", "Number of freezes exceed `MaxFreezes`."},
			{"IssuanceDeactivated", "The issuance cannot be modified since it is already deactivated."},
			{"DeltaZero", "The delta cannot be zero."},
		}},
	}
}

// Lookup finds the metadata of a module error.
func (t ErrorTable) Lookup(pallet, index uint8) (section string, meta ErrorMeta, ok bool) {
	p, found := t[pallet]
	if !found || int(index) >= len(p.Errors) {
		return "", ErrorMeta{}, false
	}
	return p.Name, p.Errors[index], true
}

// ModuleError identifies a pallet error by pallet and error index.
type ModuleError struct {
	Index uint8
	Error uint8
}

// DispatchError is a failed extrinsic dispatch.
type DispatchError struct {
	Module *ModuleError
	Raw    json.RawMessage

	section string
	meta    *ErrorMeta
}

func (e *DispatchError) Error() string {
	if e.meta != nil {
		return fmt.Sprintf("%s.%s: %s", e.section, e.meta.Name, e.meta.Docs)
	}
	if e.Module != nil {
		return fmt.Sprintf("module error %d/%d", e.Module.Index, e.Module.Error)
	}
	return stringifyDispatch(e.Raw)
}

// Decoded reports whether the error was resolved against the error table.
func (e *DispatchError) Decoded() bool { return e.meta != nil }

// Decode resolves a dispatch error as reported by the node.
func (t ErrorTable) Decode(raw json.RawMessage) *DispatchError {
	out := &DispatchError{Raw: raw}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return out
	}
	modRaw, ok := lookupKey(obj, "module")
	if !ok {
		return out
	}

	var mod struct {
		Index uint8           `json:"index"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(modRaw, &mod); err != nil {
		return out
	}
	idx, err := parseErrorIndex(mod.Error)
	if err != nil {
		return out
	}
	out.Module = &ModuleError{Index: mod.Index, Error: idx}
	if section, meta, ok := t.Lookup(mod.Index, idx); ok {
		out.section = section
		out.meta = &meta
	}
	return out
}

// parseErrorIndex accepts both the legacy numeric index and the 4-byte hex
// error whose first byte is the index.
func parseErrorIndex(raw json.RawMessage) (uint8, error) {
	var n uint8
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	s = strings.TrimPrefix(s, "0x")
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid module error %q", s)
	}
	v, err := strconv.ParseUint(s[:2], 16, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func lookupKey(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func stringifyDispatch(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) == nil && len(obj) == 1 {
		for k, v := range obj {
			var inner string
			if json.Unmarshal(v, &inner) == nil {
				return fmt.Sprintf("%s: %s", k, inner)
			}
			return fmt.Sprintf("%s: %s", k, string(v))
		}
	}
	return string(raw)
}
