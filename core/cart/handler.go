package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/pet-marketplace/api/web"
	"github.com/irsalhamdi/pet-marketplace/api/weberr"
	"github.com/irsalhamdi/pet-marketplace/core/claims"
	"github.com/irsalhamdi/pet-marketplace/validate"
)

// View is the cart as rendered to clients.
type View struct {
	Cart
	SubtotalDisplay string `json:"subtotalDisplay"`
}

func NewView(c Cart) View {
	return View{Cart: c, SubtotalDisplay: FormatPrice(c.Subtotal)}
}

func session(ctx context.Context, repo *Repository) (*Session, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return nil, weberr.NotAuthorized(errors.New("user not authenticated"))
	}
	return NewSession(ctx, repo, clm.UserID), nil
}

func itemID(r *http.Request) (int, error) {
	id, err := web.ParamInt(r, "id")
	if err != nil {
		return 0, weberr.BadRequest(err)
	}
	return id, nil
}

func HandleShow(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := session(ctx, repo)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, NewView(s.Cart()), http.StatusOK)
	}
}

// HandleShowUser lets support staff look at any user's cart.
func HandleShowUser(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		userID, err := web.ParamInt(r, "user_id")
		if err != nil {
			return weberr.BadRequest(err)
		}

		return web.Respond(ctx, w, NewView(repo.Load(ctx, userID)), http.StatusOK)
	}
}

func HandleDelete(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := session(ctx, repo)
		if err != nil {
			return err
		}

		s.Clear(ctx)
		return web.Respond(ctx, w, NewView(s.Cart()), http.StatusOK)
	}
}

func HandleCreateItem(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := session(ctx, repo)
		if err != nil {
			return err
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(fmt.Errorf("validating data: %w", err))
		}

		s.Add(ctx, Item{Listing: in.Listing, Quantity: in.Quantity})
		return web.Respond(ctx, w, NewView(s.Cart()), http.StatusCreated)
	}
}

func HandleShowItem(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := itemID(r)
		if err != nil {
			return err
		}

		s, err := session(ctx, repo)
		if err != nil {
			return err
		}

		it, ok := s.Item(id)
		if !ok {
			return weberr.NotFound(fmt.Errorf("cart item[%d] not found", id))
		}
		return web.Respond(ctx, w, it, http.StatusOK)
	}
}

func HandleIncrementItem(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := itemID(r)
		if err != nil {
			return err
		}

		s, err := session(ctx, repo)
		if err != nil {
			return err
		}

		s.Increment(ctx, id)
		return web.Respond(ctx, w, NewView(s.Cart()), http.StatusOK)
	}
}

func HandleUpdateItem(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := itemID(r)
		if err != nil {
			return err
		}

		s, err := session(ctx, repo)
		if err != nil {
			return err
		}

		var up QuantityUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.BadRequest(fmt.Errorf("validating data: %w", err))
		}

		s.SetQuantity(ctx, id, up.Quantity)
		return web.Respond(ctx, w, NewView(s.Cart()), http.StatusOK)
	}
}

func HandleDeleteItem(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := itemID(r)
		if err != nil {
			return err
		}

		s, err := session(ctx, repo)
		if err != nil {
			return err
		}

		s.Remove(ctx, id)
		return web.Respond(ctx, w, NewView(s.Cart()), http.StatusOK)
	}
}
