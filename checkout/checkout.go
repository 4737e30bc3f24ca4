// Package checkout validates the checkout form and submits the order. A form
// that fails validation, or an empty cart, is rejected before any network
// call is attempted.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trendora-client/api"
	"trendora-client/cart"
	"trendora-client/models"
	"trendora-client/session"
)

// ErrEmptyCart rejects checkout of an empty cart client-side.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ValidationError carries field-level messages for the form UI.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return "checkout: invalid form: " + strings.Join(msgs, "; ")
}

// Service submits orders.
type Service struct {
	api     *api.Client
	cart    *cart.Manager
	session *session.Manager
}

func NewService(client *api.Client, cartMgr *cart.Manager, sess *session.Manager) *Service {
	return &Service{api: client, cart: cartMgr, session: sess}
}

// Submit validates the form and the cart, then posts the order. On success
// the cart is cleared (locally, plus best-effort remotely when a session
// exists). On an auth rejection the session has already been invalidated by
// the API client hook; Submit additionally records the checkout page as the
// post-login return target.
func (s *Service) Submit(ctx context.Context, form Form) (models.OrderConfirmation, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return models.OrderConfirmation{}, &ValidationError{Fields: errs}
	}

	lines := s.cart.Items()
	if len(lines) == 0 {
		return models.OrderConfirmation{}, ErrEmptyCart
	}

	// The API wants the lines as an embedded JSON string.
	itemsJSON, err := json.Marshal(lines)
	if err != nil {
		return models.OrderConfirmation{}, err
	}

	req := models.CheckoutRequest{
		Items:      string(itemsJSON),
		TotalPrice: lines.TotalPrice(),
		CountItems: lines.CountItems(),
		Email:      form.Email,
		Name:       form.Name,
		Address:    form.Address,
		Phone:      form.Phone,
	}
	if user, ok := s.session.Current(); ok {
		req.UserID = user.ID.String()
	}

	conf, err := s.api.Checkout(ctx, req)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.session.SetRedirectURL("/checkout")
		}
		return models.OrderConfirmation{}, err
	}

	s.cart.Clear()
	return conf, nil
}
