package core

// ViolationCode identifies one selection or request policy violation.
type ViolationCode string

const (
	ViolationSizeBelowMin      ViolationCode = "size_below_min"
	ViolationSizeAboveMax      ViolationCode = "size_above_max"
	ViolationFeaturedInBurnSet ViolationCode = "featured_in_burn_set"
	ViolationDuplicateBurnID   ViolationCode = "duplicate_burn_id"
	ViolationInvalidAssetRef   ViolationCode = "invalid_asset_ref"

	ViolationDisplayNameEmpty   ViolationCode = "display_name_empty"
	ViolationDisplayNameTooLong ViolationCode = "display_name_too_long"
	ViolationDescriptionTooLong ViolationCode = "description_too_long"
	ViolationAttachmentMissing  ViolationCode = "attachment_missing"
	ViolationAttachmentTooBig   ViolationCode = "attachment_too_big"
	ViolationAttachmentBadType  ViolationCode = "attachment_bad_type"
)

// Violation is one reportable policy problem. All checks run even after the
// first failure so the caller can present every problem at once.
type Violation struct {
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

// ValidationResult collects all violations of one validation pass.
type ValidationResult struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
}
