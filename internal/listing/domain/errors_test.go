package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	assert.NoError(t, verr.OrNil())

	verr.Add("name", "is required")
	verr.Add("price", "must be a non-negative number")
	err := verr.OrNil()

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "name: is required")
	assert.Contains(t, err.Error(), "price: must be a non-negative number")
}

func TestCommitError_TaggedByStep(t *testing.T) {
	cause := fmt.Errorf("%w: insert listing: boom", ErrPersistence)
	err := error(&CommitError{Step: StepFieldWrite, Operation: "create", ListingType: TypeGoods, Err: cause})

	assert.ErrorIs(t, err, ErrFieldWrite)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrUpload)
	assert.Contains(t, err.Error(), "create goods listing")

	upload := &UploadError{FileName: "a.gif", Index: 2, Err: &ValidationError{Violations: []Violation{{Field: "a.gif", Message: "unsupported"}}}}
	err = &CommitError{Step: StepUpload, Operation: "update", ListingType: TypeApartments, ListingID: "x", Err: upload}
	assert.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, ErrValidation)

	var ce *CommitError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, "x", ce.ListingID)
}

func TestListingNotFoundIsNotFound(t *testing.T) {
	assert.ErrorIs(t, ErrListingNotFound, ErrNotFound)
}

func TestListing_ScalarAttributes(t *testing.T) {
	price := 150.0
	l := &Listing{
		ID: "1", UserID: "u", ListingType: TypeGoods, Name: "Watch", Price: &price,
		Attributes: map[string]string{"condition": "Used", "name": "shadowed"},
		ImageURLs:  []string{"a"},
	}
	attrs := l.ScalarAttributes()
	assert.Equal(t, "Watch", attrs[KeyName])
	assert.Equal(t, 150.0, attrs[KeyPrice])
	assert.Equal(t, "Used", attrs["condition"])
	assert.NotContains(t, attrs, KeyImageURLs)

	v, ok := l.Attribute(KeyPrice)
	assert.True(t, ok)
	assert.Equal(t, "150", v)
}
