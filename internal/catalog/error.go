package catalog

import "errors"

var (
	ErrProductNotFound       = errors.New("product does not exist")
	ErrVariationItemNotFound = errors.New("variation item does not exist")
	ErrOfferNotFound         = errors.New("offer does not exist")
)
