package order

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// LineInput is one requested order line. IDs are external identifiers.
// ID is the client id: when present it becomes the persisted external id.
type LineInput struct {
	ID           *string
	ProductID    *string
	Type         *ItemType
	DiversePrice *int
	Count        int
	Discount     int
	Notes        *string
	TakeAway     bool
	Course       *int
	OfferID      *string
	Variations   []VariationInput
	Children     []LineInput
}

type VariationInput struct {
	ID               *string
	VariationItemIDs []string
	Count            int
}

type RemoveInput struct {
	ProductID string
	Count     int
}

func fieldError(path, format string, args ...any) error {
	return fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...))
}

func validateUUID(path string, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := uuid.Parse(*id); err != nil {
		return fieldError(path, "must be a UUID")
	}
	return nil
}

// ValidateLines checks every line and returns all problems at once.
func ValidateLines(lines []LineInput) error {
	var errs error
	seen := make(map[string]bool)
	for i, l := range lines {
		path := fmt.Sprintf("orderItems[%d]", i)
		errs = multierr.Append(errs, validateLine(path, l, false))
		if l.ID != nil {
			if seen[*l.ID] {
				errs = multierr.Append(errs, fieldError(path+".id", "duplicate client id"))
			}
			seen[*l.ID] = true
		}
	}
	return newValidationError(errs)
}

func validateLine(path string, l LineInput, child bool) error {
	var errs error
	errs = multierr.Append(errs, validateUUID(path+".id", l.ID))
	errs = multierr.Append(errs, validateUUID(path+".productId", l.ProductID))
	errs = multierr.Append(errs, validateUUID(path+".offerId", l.OfferID))

	if l.Count <= 0 {
		errs = multierr.Append(errs, fieldError(path+".count", "must be positive"))
	}
	if l.Discount < 0 {
		errs = multierr.Append(errs, fieldError(path+".discount", "must not be negative"))
	}

	switch {
	case l.ProductID != nil && l.DiversePrice != nil:
		errs = multierr.Append(errs, fieldError(path, "productId and diversePrice are mutually exclusive"))
	case l.ProductID == nil && l.DiversePrice == nil:
		errs = multierr.Append(errs, fieldError(path, "one of productId or diversePrice is required"))
	}
	if l.DiversePrice != nil && *l.DiversePrice < 0 {
		errs = multierr.Append(errs, fieldError(path+".diversePrice", "must not be negative"))
	}
	if child && l.ProductID == nil {
		errs = multierr.Append(errs, fieldError(path+".productId", "is required for child lines"))
	}

	if l.Type != nil {
		switch {
		case !l.Type.IsValid():
			errs = multierr.Append(errs, fieldError(path+".type", "unknown type %q", *l.Type))
		case l.Type.IsDiverse() && l.ProductID != nil:
			errs = multierr.Append(errs, fieldError(path+".type", "%s lines cannot reference a product", *l.Type))
		case !l.Type.IsDiverse() && l.ProductID == nil:
			errs = multierr.Append(errs, fieldError(path+".type", "%s lines require a product", *l.Type))
		}
	}

	for i, v := range l.Variations {
		errs = multierr.Append(errs, validateVariation(fmt.Sprintf("%s.variations[%d]", path, i), v))
	}

	switch {
	case child && len(l.Children) > 0:
		errs = multierr.Append(errs, fieldError(path+".orderItems", "child lines cannot have children"))
	case l.Type != nil && *l.Type == ItemTypeSpecial && len(l.Children) > 1:
		errs = multierr.Append(errs, fieldError(path+".orderItems", "%s lines take at most one child", ItemTypeSpecial))
	}

	if !child {
		for i, c := range l.Children {
			errs = multierr.Append(errs, validateLine(fmt.Sprintf("%s.orderItems[%d]", path, i), c, true))
		}
	}

	return errs
}

func validateVariation(path string, v VariationInput) error {
	var errs error
	errs = multierr.Append(errs, validateUUID(path+".id", v.ID))
	if v.Count <= 0 {
		errs = multierr.Append(errs, fieldError(path+".count", "must be positive"))
	}
	if len(v.VariationItemIDs) == 0 {
		errs = multierr.Append(errs, fieldError(path+".variationItemIds", "must not be empty"))
	}
	seen := make(map[string]bool, len(v.VariationItemIDs))
	for i, id := range v.VariationItemIDs {
		p := fmt.Sprintf("%s.variationItemIds[%d]", path, i)
		errs = multierr.Append(errs, validateUUID(p, &id))
		if seen[id] {
			errs = multierr.Append(errs, fieldError(p, "duplicate variation item"))
		}
		seen[id] = true
	}
	return errs
}

// ValidateRemovals checks removal requests.
func ValidateRemovals(lines []RemoveInput) error {
	var errs error
	for i, l := range lines {
		path := fmt.Sprintf("products[%d]", i)
		errs = multierr.Append(errs, validateUUID(path+".productId", &l.ProductID))
		if l.Count <= 0 {
			errs = multierr.Append(errs, fieldError(path+".count", "must be positive"))
		}
	}
	return newValidationError(errs)
}
