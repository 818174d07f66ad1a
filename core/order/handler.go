package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/irsalhamdi/pet-marketplace/api/web"
	"github.com/irsalhamdi/pet-marketplace/api/weberr"
	"github.com/irsalhamdi/pet-marketplace/config"
	"github.com/irsalhamdi/pet-marketplace/core/cart"
	"github.com/irsalhamdi/pet-marketplace/core/claims"
	"github.com/irsalhamdi/pet-marketplace/validate"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// checkout reads the caller's cart at the moment of submission.
func checkout(ctx context.Context, carts *cart.Repository) (int, []Item, int64, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return 0, nil, 0, weberr.NotAuthorized(errors.New("user not authenticated"))
	}

	s := cart.NewSession(ctx, carts, clm.UserID)
	if s.Empty() {
		return 0, nil, 0, weberr.UnprocessableEntity(errors.New("no items to checkout"))
	}

	lines, total := linesFrom(s.Items())
	return clm.UserID, lines, total, nil
}

func prepare(ctx context.Context, orders *Store, userID int, providerID string, lines []Item, total int64) error {
	now := time.Now().UTC()
	ord := Order{
		ID:         validate.GenerateID(),
		UserID:     userID,
		ProviderID: providerID,
		Status:     Pending,
		Items:      lines,
		Total:      float64(total) / 100,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := orders.Save(ctx, ord); err != nil {
		return fmt.Errorf("creating the order bound to payment[%s] for user[%d]: %w", providerID, userID, err)
	}
	return nil
}

// fulfill marks the order paid and takes the paid lines out of its owner's
// cart. Providers may deliver the same confirmation more than once.
func fulfill(ctx context.Context, orders *Store, carts *cart.Repository, providerID string) error {
	ord, err := orders.FetchByProviderID(ctx, providerID)
	if err != nil {
		return fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	if ord.Status == Success {
		return nil
	}

	ord.Status = Success
	ord.UpdatedAt = time.Now().UTC()
	if err := orders.Save(ctx, ord); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", ord.ID, err)
	}

	cart.NewSession(ctx, carts, ord.UserID).Settle(ctx, ord.cartItems())
	return nil
}

func HandlePaypalCheckout(carts *cart.Repository, orders *Store, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		userID, lines, total, err := checkout(ctx, carts)
		if err != nil {
			return err
		}

		items := make([]paypal.Item, 0, len(lines))
		for _, l := range lines {
			items = append(items, paypal.Item{
				Quantity: strconv.Itoa(l.Quantity),
				Name:     l.title(),
				SKU:      strconv.Itoa(l.ListingID),

				UnitAmount: &paypal.Money{
					Currency: "USD",
					Value:    formatCents(cents(l.Price)),
				},
			})
		}

		units := []paypal.PurchaseUnitRequest{{
			Items: items,

			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    formatCents(total),

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: "USD",
					Value:    formatCents(total),
				}},
			},
		}}

		ord, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
		if err != nil {
			return fmt.Errorf("creating paypal order: %w", err)
		}

		if err := prepare(ctx, orders, userID, ord.ID, lines, total); err != nil {
			return fmt.Errorf("recording the order: %w", err)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandlePaypalCapture(carts *cart.Repository, orders *Store, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		providerID := web.Param(r, "id")

		ord, err := orders.FetchByProviderID(ctx, providerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if ord.UserID != clm.UserID {
			return weberr.NotFound(fmt.Errorf("order[%s] belongs to user[%d], not user[%d]", providerID, ord.UserID, clm.UserID))
		}

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		if err := fulfill(ctx, orders, carts, providerID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleStripeCheckout(carts *cart.Repository, orders *Store, strp *stripecl.API, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		userID, lines, total, err := checkout(ctx, carts)
		if err != nil {
			return err
		}

		li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
		for _, l := range lines {
			li = append(li, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(int64(l.Quantity)),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("usd"),
					TaxBehavior: stripe.String("inclusive"),
					UnitAmount:  stripe.Int64(cents(l.Price)),

					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(l.title()),
					},
				},
			})
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL:        stripe.String(cfg.SuccessURL),
			CancelURL:         stripe.String(cfg.CancelURL),
			Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
			ClientReferenceID: stripe.String(strconv.Itoa(userID)),
			LineItems:         li,
		}
		params.Context = ctx

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session: %w", err)
		}

		if err := prepare(ctx, orders, userID, s.ID, lines, total); err != nil {
			return fmt.Errorf("recording the order: %w", err)
		}

		return web.Respond(ctx, w, s.URL, http.StatusOK)
	}
}

func HandleStripeCapture(carts *cart.Repository, orders *Store, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if err := fulfill(ctx, orders, carts, session.ID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
