//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
)

func parseAmount(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}
	return v
}

// findProduct returns the seeded product with the given name.
func findProduct(t *testing.T, name string) productResponse {
	t.Helper()

	resp := doGet(t, "/api/products")
	defer resp.Body.Close()
	products := decodeJSON[[]productResponse](t, resp)
	for _, p := range products {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("seeded product %q not found", name)
	return productResponse{}
}

func TestPlaceOrder(t *testing.T) {
	token := registerAndLogin(t, "order-basic", "hunter2hunter2")
	coffee := findProduct(t, "House Blend Coffee 250g")

	resp := doAuthed(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": coffee.ID, "quantity": 2},
		},
		"city":    "Springfield",
		"address": "12 Oak St",
	}, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	o := decodeJSON[orderResponse](t, resp)
	if o.ID == 0 {
		t.Error("order has no ID")
	}
	if o.Status != "Pending" {
		t.Errorf("status: got %q, want Pending", o.Status)
	}
	if total := parseAmount(t, o.TotalAmount); total != 25.0 {
		t.Errorf("total: got %v, want 25", total)
	}
	if len(o.Items) != 1 || o.Items[0].Quantity != 2 {
		t.Errorf("unexpected items: %+v", o.Items)
	}
}

func TestPlaceOrder_DecrementsStock(t *testing.T) {
	token := registerAndLogin(t, "order-stock", "hunter2hunter2")
	almonds := findProduct(t, "Salted Almonds 150g")

	resp := doAuthed(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": almonds.ID, "quantity": 3},
		},
	}, token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	after := findProduct(t, "Salted Almonds 150g")
	if after.Stock != almonds.Stock-3 {
		t.Errorf("stock: got %d, want %d", after.Stock, almonds.Stock-3)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	token := registerAndLogin(t, "order-oversell", "hunter2hunter2")
	oil := findProduct(t, "Olive Oil 500ml")

	resp := doAuthed(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": oil.ID, "quantity": oil.Stock + 1},
		},
	}, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "insufficient_stock" {
		t.Errorf("error code: got %q, want insufficient_stock", body.Code)
	}
}

func TestPlaceOrder_PackSizeEnforced(t *testing.T) {
	token := registerAndLogin(t, "order-packsize", "hunter2hunter2")
	water := findProduct(t, "Sparkling Water 330ml")

	// Sold in packs of six: quantity 7 is rejected, 12 is accepted.
	resp := doAuthed(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": water.ID, "quantity": 7},
		},
	}, token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for off-pack quantity, got %d", resp.StatusCode)
	}

	resp = doAuthed(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": water.ID, "quantity": 12},
		},
	}, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for full packs, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_ConcurrentBuyersCannotOversell(t *testing.T) {
	admin := login(t, "admin", seededAdminPassword)

	// A dedicated product so the two buyers race for the same stock.
	resp := doAuthed(t, http.MethodPost, "/api/products", map[string]any{
		"name":  "Single Batch Honey 250g",
		"price": "8.00",
		"stock": 5,
	}, admin)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d", resp.StatusCode)
	}
	honey := decodeJSON[productResponse](t, resp)
	resp.Body.Close()

	tokens := []string{
		registerAndLogin(t, "oversell-a", "hunter2hunter2"),
		registerAndLogin(t, "oversell-b", "hunter2hunter2"),
	}

	// Each buyer wants 3 of the 5 units; only one order can succeed.
	codes := make(chan int, len(tokens))
	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()

			body, err := json.Marshal(map[string]any{
				"items": []map[string]any{
					{"product_id": honey.ID, "quantity": 3},
				},
			})
			if err != nil {
				codes <- 0
				return
			}
			req, err := http.NewRequest(http.MethodPost, baseURL+"/api/orders", bytes.NewReader(body))
			if err != nil {
				codes <- 0
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := httpClient.Do(req)
			if err != nil {
				codes <- 0
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}(token)
	}
	wg.Wait()
	close(codes)

	var accepted, rejected int
	for code := range codes {
		switch code {
		case http.StatusCreated:
			accepted++
		case http.StatusConflict:
			rejected++
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if accepted != 1 || rejected != 1 {
		t.Fatalf("got %d accepted / %d rejected, want exactly 1 / 1", accepted, rejected)
	}

	after := findProduct(t, "Single Batch Honey 250g")
	if after.Stock != 2 {
		t.Errorf("stock after race: got %d, want 2", after.Stock)
	}
}

func TestOrders_ScopedToOwner(t *testing.T) {
	ownerToken := registerAndLogin(t, "order-owner", "hunter2hunter2")
	otherToken := registerAndLogin(t, "order-other", "hunter2hunter2")
	tea := findProduct(t, "Green Tea 20pk")

	resp := doAuthed(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": tea.ID, "quantity": 1},
		},
	}, ownerToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	t.Run("owner can read", func(t *testing.T) {
		resp := doAuthed(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", o.ID), nil, ownerToken)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("other customer gets 404", func(t *testing.T) {
		resp := doAuthed(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", o.ID), nil, otherToken)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("admin can read", func(t *testing.T) {
		adminToken := login(t, "admin", seededAdminPassword)
		resp := doAuthed(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", o.ID), nil, adminToken)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	token := registerAndLogin(t, "order-cancel", "hunter2hunter2")
	rice := findProduct(t, "Basmati Rice 1kg")

	resp := doAuthed(t, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": rice.ID, "quantity": 2},
		},
	}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	resp = doAuthed(t, http.MethodDelete, fmt.Sprintf("/api/orders/%d", o.ID), nil, token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	after := findProduct(t, "Basmati Rice 1kg")
	if after.Stock != rice.Stock {
		t.Errorf("stock after cancel: got %d, want %d", after.Stock, rice.Stock)
	}
}
