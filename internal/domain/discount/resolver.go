package discount

import "strings"

// Resolve picks the discount that applies automatically to a product line for
// a customer. Candidates are the compatible active discounts as returned by
// Repository.ListCandidates; coded discounts are skipped. Precedence, most
// specific first:
//
//  1. targets both the customer and the product
//  2. targets the customer only
//  3. targets the product only
//  4. store-wide
//
// Ties within a tier resolve to the first candidate. Returns nil when no
// discount applies.
func Resolve(candidates []Discount, productID, customerID int64) *Discount {
	var customerWide, productWide, storeWide *Discount
	for i := range candidates {
		d := &candidates[i]
		if d.Status != StatusActive || d.Code != "" {
			continue
		}
		switch {
		case d.CustomerID != nil && d.ProductID != nil:
			if *d.CustomerID == customerID && *d.ProductID == productID {
				return d
			}
		case d.CustomerID != nil:
			if *d.CustomerID == customerID && customerWide == nil {
				customerWide = d
			}
		case d.ProductID != nil:
			if *d.ProductID == productID && productWide == nil {
				productWide = d
			}
		default:
			if storeWide == nil {
				storeWide = d
			}
		}
	}
	if customerWide != nil {
		return customerWide
	}
	if productWide != nil {
		return productWide
	}
	return storeWide
}

// ResolveCode finds the active discount claimed by code among the compatible
// candidates. Codes compare case-insensitively. Returns ErrCodeNotFound when
// no candidate carries the code, which deliberately does not reveal whether
// the code exists at all.
func ResolveCode(candidates []Discount, code string) (*Discount, error) {
	for i := range candidates {
		d := &candidates[i]
		if d.Status != StatusActive || d.Code == "" {
			continue
		}
		if strings.EqualFold(d.Code, code) {
			return d, nil
		}
	}
	return nil, ErrCodeNotFound
}
