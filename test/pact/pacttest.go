//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "ghadwa-checkout-api"
	ConsumerName = "ghadwa-storefront"

	// The checkout API is itself a consumer of the operations webhook.
	WebhookConsumerName = ProviderName
	WebhookProviderName = "ghadwa-ops-webhook"

	StatePromosSeeded = "demo promo codes are seeded"
	StateOrderExists  = "order GHD-1001 exists"
	StateOrderMissing = "no order GHD-9999"
	StateWebhookReady = "operations webhook accepts orders"
)

const (
	ExistingOrderNumber = "GHD-1001"
	MissingOrderNumber  = "GHD-9999"
	IdempotencyKey      = "pact-cart-1"
	WebhookPath         = "/hooks/orders"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the storefront contract verified by the checkout API.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCheckoutPayload is the single-vendor cart the storefront submits.
func ExampleCheckoutPayload() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"productId": "p-1", "chefId": "chef-7", "name": "Molokhia", "price": 125, "quantity": 2},
		},
		"customer": map[string]any{
			"name":    "Mona Adel",
			"phone":   "01001234567",
			"address": "12 Tahrir St, Cairo",
		},
		"promoCode": "WELCOME20",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
