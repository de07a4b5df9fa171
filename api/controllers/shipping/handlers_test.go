package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mnldiecast/storefront-backend/api/middleware"
	cartsvc "github.com/mnldiecast/storefront-backend/internal/cart"
	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/enums"
)

type stubCartService struct {
	cartsvc.Service

	view *cartsvc.View
}

func (s *stubCartService) Reload(context.Context, cartsvc.Identity) (*cartsvc.View, error) {
	return s.view, nil
}

func quoteRequestFor(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/quote", strings.NewReader(body))
	return req.WithContext(middleware.WithIdentity(req.Context(), cartsvc.GuestIdentity("tok-q")))
}

func smallCart() *cartsvc.View {
	return &cartsvc.View{Lines: []cartsvc.Line{
		{VariantID: uuid.New(), Qty: 2, ShipClass: enums.ShipClassMiniGT},
	}}
}

func TestQuoteSmallPackage(t *testing.T) {
	handler := Quote(config.ShippingConfig{}, &stubCartService{view: smallCart()}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, quoteRequestFor(`{"carrier":"JNT","region":"METRO_MANILA"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data quoteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.FeeCents != 6500 {
		t.Fatalf("unexpected fee: %d", envelope.Data.FeeCents)
	}
	if envelope.Data.PackageCode == nil || *envelope.Data.PackageCode != enums.PackageJNTSmall {
		t.Fatalf("unexpected package: %v", envelope.Data.PackageCode)
	}
}

func TestQuoteFallsBackToDefaultRegion(t *testing.T) {
	cfg := config.ShippingConfig{DefaultRegion: "VISAYAS"}
	handler := Quote(cfg, &stubCartService{view: smallCart()}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, quoteRequestFor(`{"carrier":"JNT"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data quoteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Region != enums.RegionVisayas {
		t.Fatalf("unexpected region: %s", envelope.Data.Region)
	}
	if envelope.Data.FeeCents != 9500 {
		t.Fatalf("unexpected fee: %d", envelope.Data.FeeCents)
	}
}

func TestQuoteEmptyCart(t *testing.T) {
	handler := Quote(config.ShippingConfig{}, &stubCartService{view: &cartsvc.View{}}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, quoteRequestFor(`{"carrier":"JNT","region":"LUZON"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestQuoteInfeasibleCart(t *testing.T) {
	view := &cartsvc.View{Lines: []cartsvc.Line{
		{VariantID: uuid.New(), Qty: 50, ShipClass: enums.ShipClassMiniGT},
	}}
	handler := Quote(config.ShippingConfig{}, &stubCartService{view: view}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, quoteRequestFor(`{"carrier":"JNT","region":"METRO_MANILA"}`))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
