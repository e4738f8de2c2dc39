package service

import (
	"fmt"
	"math"

	"docsign-service/internal/domain"
)

// Field geometry, in percent of the page.
const (
	FieldWidth    = 18.0
	FieldHeight   = 3.5
	BasePageY     = 88.0
	Spacing       = 2.0
	SpacingBelow  = 2.0
	MarginX       = 12.0
	MaxRecipients = 5
	MaxApprovers  = 1

	// centerThreshold is the signer count from which the block is centered
	// instead of right-aligned.
	centerThreshold = 5
)

// ComputeFields places a Signature and an Email field for every signer and
// approver on each applicable page. Viewers and CC recipients get nothing.
// Fields reference recipients by their ID.
func ComputeFields(recipients []*domain.Recipient, pageCount int, lastPageOnly bool) ([]*domain.Field, error) {
	roles := make([]domain.RecipientRole, len(recipients))
	for i, r := range recipients {
		roles[i] = r.Role
	}
	if err := CheckRecipientLimits(roles); err != nil {
		return nil, err
	}

	var approver *domain.Recipient
	var signers []*domain.Recipient
	placed := make([]*domain.Recipient, 0, len(recipients))
	for _, r := range recipients {
		switch r.Role {
		case domain.RoleApprover:
			approver = r
		case domain.RoleSigner:
			signers = append(signers, r)
		default:
			continue
		}
		placed = append(placed, r)
	}

	if pageCount < 1 || len(placed) == 0 {
		return []*domain.Field{}, nil
	}

	anchors := make(map[*domain.Recipient][2]float64, len(placed))
	if approver != nil {
		anchors[approver] = [2]float64{MarginX, BasePageY}
	}
	for i, x := range signerColumns(len(signers)) {
		anchors[signers[i]] = [2]float64{x, BasePageY}
	}

	first := 1
	if lastPageOnly {
		first = pageCount
	}

	fields := make([]*domain.Field, 0, 2*len(placed)*(pageCount-first+1))
	for page := first; page <= pageCount; page++ {
		for _, r := range placed {
			at := anchors[r]
			fields = append(fields,
				&domain.Field{
					RecipientID: r.ID,
					Type:        domain.FieldTypeSignature,
					PageNumber:  page,
					PageX:       round1(at[0]),
					PageY:       round1(at[1]),
					Width:       FieldWidth,
					Height:      FieldHeight,
				},
				&domain.Field{
					RecipientID: r.ID,
					Type:        domain.FieldTypeEmail,
					PageNumber:  page,
					PageX:       round1(at[0]),
					PageY:       round1(at[1] + FieldHeight + SpacingBelow),
					Width:       FieldWidth,
					Height:      FieldHeight,
				},
			)
		}
	}
	return fields, nil
}

// CheckRecipientLimits enforces at most MaxRecipients recipients of any role
// and at most MaxApprovers approvers.
func CheckRecipientLimits(roles []domain.RecipientRole) error {
	if len(roles) > MaxRecipients {
		return fmt.Errorf("%d recipients: %w", len(roles), domain.ErrTooManyRecipients)
	}
	approvers := 0
	for _, role := range roles {
		if role == domain.RoleApprover {
			approvers++
		}
	}
	if approvers > MaxApprovers {
		return domain.ErrTooManyApprovers
	}
	return nil
}

// signerColumns returns the left edge of each signer's field, in signer order.
// Below centerThreshold the first signer sits rightmost and the rest step left.
func signerColumns(n int) []float64 {
	xs := make([]float64, n)
	if n == 0 {
		return xs
	}
	step := FieldWidth + Spacing

	if n >= centerThreshold {
		total := float64(n)*FieldWidth + float64(n-1)*Spacing
		start := math.Max(0, (100-total)/2)
		for i := range xs {
			xs[i] = start + float64(i)*step
		}
		return xs
	}

	right := 100 - MarginX - FieldWidth
	for i := range xs {
		xs[i] = right - float64(i)*step
	}
	return xs
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
