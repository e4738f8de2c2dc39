package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsign-service/internal/domain"
)

func recipients(approvers, signers, viewers int) []*domain.Recipient {
	var out []*domain.Recipient
	for i := 0; i < approvers; i++ {
		out = append(out, &domain.Recipient{ID: fmt.Sprintf("approver-%d", i), Role: domain.RoleApprover})
	}
	for i := 0; i < signers; i++ {
		out = append(out, &domain.Recipient{ID: fmt.Sprintf("signer-%d", i), Role: domain.RoleSigner})
	}
	for i := 0; i < viewers; i++ {
		out = append(out, &domain.Recipient{ID: fmt.Sprintf("viewer-%d", i), Role: domain.RoleViewer})
	}
	return out
}

func signaturesOnPage(fields []*domain.Field, page int) map[string]*domain.Field {
	out := make(map[string]*domain.Field)
	for _, f := range fields {
		if f.PageNumber == page && f.Type == domain.FieldTypeSignature {
			out[f.RecipientID] = f
		}
	}
	return out
}

func TestComputeFields_CountAndOrdering(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for _, pages := range []int{1, 3} {
			t.Run(fmt.Sprintf("%d signers %d pages", n, pages), func(t *testing.T) {
				fields, err := ComputeFields(recipients(0, n, 0), pages, false)
				require.NoError(t, err)
				assert.Len(t, fields, 2*n*pages)

				for i := 0; i < len(fields); i += 2 {
					sig, email := fields[i], fields[i+1]
					assert.Equal(t, domain.FieldTypeSignature, sig.Type)
					assert.Equal(t, domain.FieldTypeEmail, email.Type)
					assert.Equal(t, sig.RecipientID, email.RecipientID)
					assert.Equal(t, sig.PageNumber, email.PageNumber)
					assert.Equal(t, sig.PageX, email.PageX)
					assert.InDelta(t, sig.PageY+FieldHeight+SpacingBelow, email.PageY, 0.001)
				}

				lastOnly, err := ComputeFields(recipients(0, n, 0), pages, true)
				require.NoError(t, err)
				assert.Len(t, lastOnly, 2*n)
			})
		}
	}
}

func TestComputeFields_RightAlignedBelowFive(t *testing.T) {
	for n := 1; n < 5; n++ {
		fields, err := ComputeFields(recipients(0, n, 0), 1, false)
		require.NoError(t, err)

		maxRight := 0.0
		for _, f := range signaturesOnPage(fields, 1) {
			if right := f.PageX + f.Width; right > maxRight {
				maxRight = right
			}
		}
		assert.InDelta(t, 100-MarginX, maxRight, 0.001, "n=%d", n)
	}
}

func TestComputeFields_CenteredAtFive(t *testing.T) {
	fields, err := ComputeFields(recipients(0, 5, 0), 1, false)
	require.NoError(t, err)

	sigs := signaturesOnPage(fields, 1)
	require.Len(t, sigs, 5)

	minLeft, maxRight := 100.0, 0.0
	for _, f := range sigs {
		if f.PageX < minLeft {
			minLeft = f.PageX
		}
		if right := f.PageX + f.Width; right > maxRight {
			maxRight = right
		}
	}
	total := 5*FieldWidth + 4*Spacing
	assert.InDelta(t, (100-total)/2, minLeft, 0.001)
	assert.InDelta(t, 100-minLeft, maxRight, 0.001, "block must be symmetric around the midpoint")
}

func TestComputeFields_ApproverAnchor(t *testing.T) {
	for n := 0; n <= 4; n++ {
		fields, err := ComputeFields(recipients(1, n, 0), 2, false)
		require.NoError(t, err)

		for page := 1; page <= 2; page++ {
			sig := signaturesOnPage(fields, page)["approver-0"]
			require.NotNil(t, sig, "n=%d page=%d", n, page)
			assert.Equal(t, 12.0, sig.PageX)
			assert.Equal(t, 88.0, sig.PageY)
		}
	}
}

func TestComputeFields_ApproverAndThreeSigners(t *testing.T) {
	fields, err := ComputeFields(recipients(1, 3, 0), 1, false)
	require.NoError(t, err)
	assert.Len(t, fields, 8)

	sigs := signaturesOnPage(fields, 1)
	assert.Equal(t, 12.0, sigs["approver-0"].PageX)
	assert.Equal(t, 88.0, sigs["approver-0"].PageY)
	assert.Equal(t, 70.0, sigs["signer-0"].PageX)
	assert.Equal(t, 50.0, sigs["signer-1"].PageX)
	assert.Equal(t, 30.0, sigs["signer-2"].PageX)
}

func TestComputeFields_Validation(t *testing.T) {
	_, err := ComputeFields(recipients(2, 1, 0), 1, false)
	assert.ErrorIs(t, err, domain.ErrTooManyApprovers)

	_, err = ComputeFields(recipients(0, 6, 0), 1, false)
	assert.ErrorIs(t, err, domain.ErrTooManyRecipients)

	_, err = ComputeFields(recipients(1, 4, 1), 1, false)
	assert.ErrorIs(t, err, domain.ErrTooManyRecipients)
}

func TestComputeFields_ViewersGetNoFields(t *testing.T) {
	fields, err := ComputeFields(recipients(0, 2, 2), 1, false)
	require.NoError(t, err)
	assert.Len(t, fields, 4)
	for _, f := range fields {
		assert.NotContains(t, f.RecipientID, "viewer")
	}
}

func TestComputeFields_Pages(t *testing.T) {
	fields, err := ComputeFields(recipients(0, 1, 0), 3, true)
	require.NoError(t, err)
	for _, f := range fields {
		assert.Equal(t, 3, f.PageNumber)
	}

	fields, err = ComputeFields(recipients(0, 1, 0), 3, false)
	require.NoError(t, err)
	var pages []int
	for _, f := range fields {
		if f.Type == domain.FieldTypeSignature {
			pages = append(pages, f.PageNumber)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, pages)

	fields, err = ComputeFields(recipients(0, 1, 0), 0, false)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestComputeFields_ApproverOnly(t *testing.T) {
	fields, err := ComputeFields(recipients(1, 0, 0), 1, false)
	require.NoError(t, err)
	assert.Len(t, fields, 2)
}
