package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/pkg/errors"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNewProduct(t *testing.T) {
	t.Parallel()

	p, err := NewProduct(Input{Name: "  Payments  ", LineOfBusiness: "Fintech"}, now)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Payments", p.Name)
	assert.Equal(t, StatusPlanned, p.Status)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestNewProduct_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewProduct(Input{Name: " "}, now)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProductInvalid))

	_, err = NewProduct(Input{Name: "x", Status: "SHIPPED"}, now)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProductInvalid))
}

func TestProduct_Update(t *testing.T) {
	t.Parallel()

	p, err := NewProduct(Input{Name: "Payments", Status: StatusInProgress}, now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	launch := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, p.Update(Input{Name: "Payments v2", LaunchDate: &launch}, later))

	assert.Equal(t, "Payments v2", p.Name)
	assert.Equal(t, StatusInProgress, p.Status, "empty status keeps current")
	assert.Equal(t, &launch, p.LaunchDate)
	assert.Equal(t, later, p.UpdatedAt)
	assert.Equal(t, now, p.CreatedAt)

	assert.Error(t, p.Update(Input{Name: ""}, later))
}
