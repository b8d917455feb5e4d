package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v84"
	stripecustomer "github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/customersession"
	"github.com/stripe/stripe-go/v84/setupintent"

	"github.com/semanticallynull/rentalflow-backend/customer"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
)

// ensureStripeCustomer returns the caller's Stripe customer id, creating the
// Stripe customer and recording its handle on the profile if needed. Card
// collection happens entirely on Stripe's side; this backend only ever holds
// the opaque customer handle.
func (a *API) ensureStripeCustomer(c *gin.Context, userID string) (string, error) {
	p, err := a.customers.Get(c, userID)
	if err != nil {
		if !errors.Is(err, customer.ErrNotFound) {
			return "", err
		}
		if err := a.customers.Upsert(c, userID, customer.Fields{}); err != nil {
			return "", err
		}
		p = customer.Profile{ID: userID}
	}

	if p.StripeID != "" {
		return p.StripeID, nil
	}

	sc, err := stripecustomer.New(&stripe.CustomerParams{
		Metadata: map[string]string{
			"auth0_id": userID,
		},
	})
	if err != nil {
		return "", err
	}
	if err := a.customers.SetStripeID(c, userID, sc.ID); err != nil {
		return "", err
	}
	return sc.ID, nil
}

func (a *API) createCustomerSession(c *gin.Context) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return
	}

	stripeID, err := a.ensureStripeCustomer(c, userID)
	if err != nil {
		logger.Error("Failed to ensure stripe customer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	csParams := &stripe.CustomerSessionParams{
		Customer: stripe.String(stripeID),
	}
	csParams.AddExtra("components[customer_sheet][enabled]", "true")
	csParams.AddExtra("components[customer_sheet][features][payment_method_remove]", "enabled")
	cs, err := customersession.New(csParams)
	if err != nil {
		logger.Error("Failed to create customer session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, struct {
		CustomerID   string `json:"customerId"`
		ClientSecret string `json:"clientSecret"`
	}{
		CustomerID:   stripeID,
		ClientSecret: cs.ClientSecret,
	})
}

func (a *API) createSetupIntent(c *gin.Context) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return
	}

	stripeID, err := a.ensureStripeCustomer(c, userID)
	if err != nil {
		logger.Error("Failed to ensure stripe customer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	siparams := &stripe.SetupIntentParams{
		Customer: stripe.String(stripeID),
		AutomaticPaymentMethods: &stripe.SetupIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	si, err := setupintent.New(siparams)
	if err != nil {
		logger.Error("Failed to create setup intent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, struct {
		SetupIntent string `json:"setupIntent"`
	}{
		SetupIntent: si.ClientSecret,
	})
}
