package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/pet-marketplace/api/web"
	"github.com/plutov/paypal/v4"
	mock "github.com/stripe/stripe-mock/param"
)

// line is what a provider is expected to receive for one cart item.
type line struct {
	Quantity int
	Cents    int64
}

func totalOf(lines []line) int64 {
	var tot int64
	for _, l := range lines {
		tot += int64(l.Quantity) * l.Cents
	}
	return tot
}

var mockSeq int64

func mockID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, atomic.AddInt64(&mockSeq, 1))
}

type mockPaypal struct {
	mu       sync.Mutex
	expected []line
}

func (m *mockPaypal) expect(lines ...line) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expected = lines
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := map[string]any{
			"access_token": "A21AA-test",
			"token_type":   "Bearer",
			"expires_in":   32400,
		}
		web.Respond(context.Background(), w, tok, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		expected := m.expected
		m.mu.Unlock()

		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 || len(pu.Units[0].Items) != len(expected) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		for i, it := range pu.Units[0].Items {
			want := expected[i]
			if it.Quantity != strconv.Itoa(want.Quantity) || it.UnitAmount.Value != fmt.Sprintf("%.2f", float64(want.Cents)/100) {
				web.Respond(context.Background(), w, nil, 400)
				return
			}
		}

		if pu.Units[0].Amount.Value != fmt.Sprintf("%.2f", float64(totalOf(expected))/100) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		ord := paypal.Order{ID: mockID("PAYPAL"), Status: "CREATED"}
		web.Respond(context.Background(), w, ord, 201)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ord := paypal.CaptureOrderResponse{ID: mux.Vars(r)["id"], Status: "COMPLETED"}
		web.Respond(context.Background(), w, ord, 201)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

type mockStripe struct {
	mu       sync.Mutex
	expected []line
	clientID string
}

func (m *mockStripe) expect(clientID string, lines ...line) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientID = clientID
	m.expected = lines
}

// lineItems accepts both shapes the form decoder may produce for an
// indexed list.
func lineItems(v any) []map[string]any {
	var out []map[string]any
	switch v := v.(type) {
	case []any:
		for _, li := range v {
			if it, ok := li.(map[string]any); ok {
				out = append(out, it)
			}
		}
	case map[string]any:
		for i := 0; i < len(v); i++ {
			if it, ok := v[strconv.Itoa(i)].(map[string]any); ok {
				out = append(out, it)
			}
		}
	}
	return out
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		expected, clientID := m.expected, m.clientID
		m.mu.Unlock()

		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if params["client_reference_id"] != clientID {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		items := lineItems(params["line_items"])
		if len(items) != len(expected) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		for i, it := range items {
			want := expected[i]
			if it["quantity"] != strconv.Itoa(want.Quantity) {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			pd, _ := it["price_data"].(map[string]any)
			if pd == nil || pd["unit_amount"] != strconv.FormatInt(want.Cents, 10) {
				web.Respond(context.Background(), w, nil, 400)
				return
			}
		}

		id := mockID("cs_test")
		sess := map[string]any{
			"id":     id,
			"object": "checkout.session",
			"mode":   "payment",
			"url":    "https://checkout.stripe.test/pay/" + id,
		}
		web.Respond(context.Background(), w, sess, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}
