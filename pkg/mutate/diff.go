package mutate

import "github.com/jameskraus/nab/pkg/ynab"

// EffectivePatch drops every field of the desired patch whose value
// already matches the current transaction. An explicit clear of a field
// that is already absent (or empty) is also a no-op. The result is the
// minimal patch worth sending.
func EffectivePatch(desired ynab.Patch, current *ynab.Transaction) ynab.Patch {
	var eff ynab.Patch

	if desired.Memo != nil && !nullMatches(desired.Memo, current.Memo) {
		eff.Memo = desired.Memo
	}
	if desired.PayeeName != nil && !nullMatches(desired.PayeeName, current.PayeeName) {
		eff.PayeeName = desired.PayeeName
	}
	if desired.CategoryID != nil && !nullMatches(desired.CategoryID, current.CategoryID) {
		eff.CategoryID = desired.CategoryID
	}
	if desired.FlagColor != nil && !nullMatches(desired.FlagColor, current.FlagColor) {
		eff.FlagColor = desired.FlagColor
	}
	if desired.Cleared != nil && *desired.Cleared != current.Cleared {
		eff.Cleared = desired.Cleared
	}
	if desired.Approved != nil && *desired.Approved != current.Approved {
		eff.Approved = desired.Approved
	}
	if desired.Amount != nil && *desired.Amount != current.Amount {
		eff.Amount = desired.Amount
	}
	if desired.Date != nil && *desired.Date != current.Date {
		eff.Date = desired.Date
	}

	return eff
}

// InversePatch records, for each field the effective patch touches, the
// pre-update value: a set for fields that had one, a clear for fields that
// were absent. Applying the inverse after the patch restores the prior
// field values exactly.
func InversePatch(effective ynab.Patch, prior *ynab.Transaction) ynab.Patch {
	var inv ynab.Patch

	if effective.Memo != nil {
		inv.Memo = priorNull(prior.Memo)
	}
	if effective.PayeeName != nil {
		inv.PayeeName = priorNull(prior.PayeeName)
	}
	if effective.CategoryID != nil {
		inv.CategoryID = priorNull(prior.CategoryID)
	}
	if effective.FlagColor != nil {
		inv.FlagColor = priorNull(prior.FlagColor)
	}
	if effective.Cleared != nil {
		v := prior.Cleared
		inv.Cleared = &v
	}
	if effective.Approved != nil {
		v := prior.Approved
		inv.Approved = &v
	}
	if effective.Amount != nil {
		v := prior.Amount
		inv.Amount = &v
	}
	if effective.Date != nil {
		v := prior.Date
		inv.Date = &v
	}

	return inv
}

// nullMatches reports whether the desired patch value equals the current
// field. A clear matches an absent or empty current value.
func nullMatches(desired *ynab.NullString, current *string) bool {
	if !desired.Valid {
		return current == nil || *current == ""
	}
	return current != nil && *current == desired.Value
}

// priorNull converts a current field value into the patch value that
// restores it. An empty string restores as a clear, mirroring nullMatches:
// the two are equivalent on the wire, and a set-to-empty is rejected for
// category_id.
func priorNull(current *string) *ynab.NullString {
	if current == nil || *current == "" {
		return ynab.Null()
	}
	return ynab.String(*current)
}
