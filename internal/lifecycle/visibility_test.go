package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/models"
)

func rfqWith(id string, status models.RFQStatus, lines ...[2]string) models.RFQ {
	r := models.RFQ{ID: id, Status: status}
	for _, l := range lines {
		r.Items = append(r.Items, models.RFQItem{ItemID: l[0], ItemSupplierID: l[1]})
	}
	return r
}

func TestCoverageFilter(t *testing.T) {
	rfqs := []models.RFQ{
		rfqWith("all-mine", models.RFQOpen, [2]string{"a", "s1"}, [2]string{"b", "s1"}),
		rfqWith("mixed", models.RFQOpen, [2]string{"a", "s1"}, [2]string{"c", "s2"}),
		rfqWith("foreign", models.RFQOpen, [2]string{"c", "s2"}),
		rfqWith("quoted-by-me", models.RFQOpen, [2]string{"a", "s1"}),
		rfqWith("closed", models.RFQClosed, [2]string{"a", "s1"}),
		rfqWith("empty", models.RFQOpen),
	}

	got := CoverageFilter(rfqs, "s1", []string{"a", "b"}, []string{"quoted-by-me"})
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"all-mine"}, ids)
}

func TestCoverageFilter_NoApprovedItems(t *testing.T) {
	rfqs := []models.RFQ{rfqWith("r1", models.RFQOpen, [2]string{"a", "s1"})}
	assert.Empty(t, CoverageFilter(rfqs, "s1", nil, nil))
}

func TestSupplierOpportunities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rfq := f.officeSupplies(t)

	got, err := f.svc.SupplierOpportunities(ctx, f.supplier)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rfq.ID, got[0].ID)

	got, err = f.svc.SupplierOpportunities(ctx, f.otherSupplier)
	require.NoError(t, err)
	assert.Empty(t, got)

	f.quoteOffice(t, rfq)
	got, err = f.svc.SupplierOpportunities(ctx, f.supplier)
	require.NoError(t, err)
	assert.Empty(t, got, "quoted rfqs disappear from the feed")

	_, err = f.svc.SupplierOpportunities(ctx, f.client)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSupplierOpportunities_WithoutCatalog(t *testing.T) {
	f := newFixture(t)
	loner := &models.UserProfile{ID: "supplier-9", Role: models.RoleSupplier, Status: models.UserApproved}
	got, err := f.svc.SupplierOpportunities(context.Background(), loner)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
