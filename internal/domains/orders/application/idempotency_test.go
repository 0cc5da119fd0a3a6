package application

import (
	"testing"

	"github.com/stretchr/testify/require"

	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
)

func TestFingerprintCheckout_IgnoresKeyAndFormatting(t *testing.T) {
	a := orderstypes.CheckoutInput{Items: cart(), Form: form(), PromoCode: "welcome20", IdempotencyKey: "a"}
	b := orderstypes.CheckoutInput{Items: cart(), Form: form(), PromoCode: " WELCOME20 ", IdempotencyKey: "b"}
	b.Form.Phone = "01012345678"

	fa, err := FingerprintCheckout(a)
	require.NoError(t, err)
	fb, err := FingerprintCheckout(b)
	require.NoError(t, err)
	require.Equal(t, fa, fb)

	c := a
	c.Items = cart()
	c.Items[0].Quantity = 3
	fc, err := FingerprintCheckout(c)
	require.NoError(t, err)
	require.NotEqual(t, fa, fc)
}
