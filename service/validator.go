package service

import (
	"fmt"

	"github.com/phanstudios/what-the-burn/core"
)

// ValidateSelection checks a burn selection against the supplied policy.
// Pure and side-effect free; every check runs so the caller can show all
// problems at once. Attachment and text bounds are a separate concern, see
// ValidateRequest.
func ValidateSelection(sel core.BurnSelection, policy core.BurnPolicy) core.ValidationResult {
	var violations []core.Violation

	if len(sel.Burn) < policy.MinBurn {
		violations = append(violations, core.Violation{
			Code:    core.ViolationSizeBelowMin,
			Message: fmt.Sprintf("burn set has %d assets, minimum is %d", len(sel.Burn), policy.MinBurn),
		})
	}
	if len(sel.Burn) > policy.MaxBurn {
		violations = append(violations, core.Violation{
			Code:    core.ViolationSizeAboveMax,
			Message: fmt.Sprintf("burn set has %d assets, maximum is %d", len(sel.Burn), policy.MaxBurn),
		})
	}

	seen := make(map[uint32]bool, len(sel.Burn))
	for _, a := range sel.Burn {
		if a.ID != 0 && a.ID == sel.Featured.ID {
			violations = append(violations, core.Violation{
				Code:    core.ViolationFeaturedInBurnSet,
				Message: fmt.Sprintf("featured asset %d is inside the burn set", sel.Featured.ID),
			})
			break
		}
	}
	for _, a := range sel.Burn {
		if seen[a.ID] {
			violations = append(violations, core.Violation{
				Code:    core.ViolationDuplicateBurnID,
				Message: fmt.Sprintf("asset %d appears more than once in the burn set", a.ID),
			})
			continue
		}
		seen[a.ID] = true
	}
	for _, a := range sel.Burn {
		if a.ID == 0 || a.Name == "" {
			violations = append(violations, core.Violation{
				Code:    core.ViolationInvalidAssetRef,
				Message: fmt.Sprintf("burn asset %q (id %d) is missing its id or name", a.Name, a.ID),
			})
		}
	}
	if sel.Featured.ID == 0 || sel.Featured.Name == "" {
		violations = append(violations, core.Violation{
			Code:    core.ViolationInvalidAssetRef,
			Message: fmt.Sprintf("featured asset %q (id %d) is missing its id or name", sel.Featured.Name, sel.Featured.ID),
		})
	}

	return core.ValidationResult{OK: len(violations) == 0, Violations: violations}
}

// ValidateRequest checks the request-level fields that are orthogonal to
// the selection: display name, description and the attachment bounds.
func ValidateRequest(req *core.BurnRequest) []core.Violation {
	var violations []core.Violation

	if req.DisplayName == "" {
		violations = append(violations, core.Violation{
			Code:    core.ViolationDisplayNameEmpty,
			Message: "display name is required",
		})
	}
	if len(req.DisplayName) > core.MaxDisplayNameLen {
		violations = append(violations, core.Violation{
			Code:    core.ViolationDisplayNameTooLong,
			Message: fmt.Sprintf("display name exceeds %d characters", core.MaxDisplayNameLen),
		})
	}
	if len(req.Description) > core.MaxDescriptionLen {
		violations = append(violations, core.Violation{
			Code:    core.ViolationDescriptionTooLong,
			Message: fmt.Sprintf("description exceeds %d characters", core.MaxDescriptionLen),
		})
	}
	switch {
	case len(req.Attachment.Data) == 0:
		violations = append(violations, core.Violation{
			Code:    core.ViolationAttachmentMissing,
			Message: "an image attachment is required",
		})
	case len(req.Attachment.Data) > core.MaxAttachmentSize:
		violations = append(violations, core.Violation{
			Code:    core.ViolationAttachmentTooBig,
			Message: fmt.Sprintf("attachment exceeds %d bytes", core.MaxAttachmentSize),
		})
	}
	if len(req.Attachment.Data) > 0 && !core.AllowedAttachmentTypes[req.Attachment.ContentType] {
		violations = append(violations, core.Violation{
			Code:    core.ViolationAttachmentBadType,
			Message: fmt.Sprintf("attachment type %q is not an accepted image type", req.Attachment.ContentType),
		})
	}

	return violations
}
