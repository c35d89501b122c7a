package deal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductMix_PositiveEntriesOnly(t *testing.T) {
	d := Deal{ProductProfits: map[Product]float64{
		ProductServiceContract:      1200,
		ProductPrepaidMaintenance:   0,
		ProductGapInsurance:         -50,
		ProductTireAndWheel:         400,
		ProductAppearanceProtection: 0,
		ProductOther:                0.01,
	}}

	mix := ProductMix(d)

	require.Len(t, mix, 3)
	for _, entry := range mix {
		assert.Greater(t, entry.Profit, 0.0, "mix must never contain zero or negative entries")
	}
}

func TestProductMix_FixedEnumerationOrder(t *testing.T) {
	d := Deal{ProductProfits: map[Product]float64{
		ProductOther:           10,
		ProductGapInsurance:    20,
		ProductServiceContract: 30,
	}}

	mix := ProductMix(d)

	require.Len(t, mix, 3)
	assert.Equal(t, ProductServiceContract, mix[0].Name)
	assert.Equal(t, ProductGapInsurance, mix[1].Name)
	assert.Equal(t, ProductOther, mix[2].Name)
}

func TestProductMix_Restartable(t *testing.T) {
	d := Deal{ProductProfits: map[Product]float64{
		ProductServiceContract: 500,
		ProductTireAndWheel:    250,
	}}

	first := ProductMix(d)
	second := ProductMix(d)

	assert.Equal(t, first, second, "repeated calls with the same input must yield identical results")
}

func TestProductMix_EmptyDeal(t *testing.T) {
	assert.Empty(t, ProductMix(Deal{}))
	assert.Empty(t, ProductMix(Deal{ProductProfits: map[Product]float64{}}))
}

func TestProductsPerDeal(t *testing.T) {
	d := Deal{ProductProfits: map[Product]float64{
		ProductServiceContract: 500,
		ProductGapInsurance:    300,
		ProductOther:           0,
	}}

	assert.Equal(t, 2, ProductsPerDeal(d))
	assert.Equal(t, 0, ProductsPerDeal(Deal{}))
}
