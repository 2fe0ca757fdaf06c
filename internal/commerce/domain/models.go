// Package domain defines the order-query collaborator contract used for
// purchase verification.
package domain

import (
	"context"
	"errors"
	"strconv"
)

var (
	ErrCollaboratorUnavailable = errors.New("commerce_unavailable")
	ErrCustomerNotFound        = errors.New("customer_not_found")
)

// Billing carries the contact fields of an order's billing section.
type Billing struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

// LineItem is a purchased item within an order. Product, SKU and variation
// ids are all candidate matches for the access-granting product.
type LineItem struct {
	ProductID   int64  `json:"product_id"`
	VariationID int64  `json:"variation_id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
}

// Matches reports whether the item is the target product. Product id, SKU
// and variation id are all compared as strings against the configured target.
func (i LineItem) Matches(target string) bool {
	if target == "" {
		return false
	}
	if i.SKU == target {
		return true
	}
	if strconv.FormatInt(i.ProductID, 10) == target {
		return true
	}
	return i.VariationID != 0 && strconv.FormatInt(i.VariationID, 10) == target
}

// Order is the e-commerce order wire shape (WooCommerce REST v3 subset).
type Order struct {
	ID          int64      `json:"id"`
	Status      string     `json:"status"`
	DateCreated string     `json:"date_created"`
	Billing     Billing    `json:"billing"`
	LineItems   []LineItem `json:"line_items"`
}

// ContainsProduct reports whether any line item matches the target product.
func (o Order) ContainsProduct(target string) bool {
	for _, item := range o.LineItems {
		if item.Matches(target) {
			return true
		}
	}
	return false
}

// Customer is the contact bundle copied into identity metadata at
// provisioning time.
type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

// Verification is the transient purchase-verification verdict. It is never
// persisted; the orchestrator copies Customer into identity metadata.
type Verification struct {
	Verified  bool      `json:"verified"`
	OrderID   int64     `json:"order_id,omitempty"`
	OrderDate string    `json:"order_date,omitempty"`
	Customer  *Customer `json:"customer_data,omitempty"`
	Message   string    `json:"message,omitempty"`
	Err       string    `json:"error,omitempty"`
}

// OrderClient lists completed orders from the e-commerce collaborator.
type OrderClient interface {
	ListCompletedOrders(ctx context.Context, customerEmail string) ([]Order, error)
	CustomerByEmail(ctx context.Context, email string) (*Customer, error)
}

// Service verifies purchases of the access-granting product. VerifyPurchase
// never returns an error: transport failures surface as an unverified verdict
// with the Err field set (the caller fails closed).
type Service interface {
	VerifyPurchase(ctx context.Context, email string) Verification
	CustomerByEmail(ctx context.Context, email string) (*Customer, error)
}
