package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/rentalflow-backend/customer"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
)

type profileResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`

	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country,omitempty"`

	LicenseNumber   string `json:"licenseNumber,omitempty"`
	LicenseImageRef string `json:"licenseImageRef,omitempty"`
	IDDocumentRef   string `json:"idDocumentRef,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func toProfileResponse(p customer.Profile) profileResponse {
	return profileResponse{
		ID:              p.ID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		AddressLine1:    p.AddressLine1,
		AddressLine2:    p.AddressLine2,
		City:            p.City,
		PostalCode:      p.PostalCode,
		Country:         p.Country,
		LicenseNumber:   p.LicenseNumber,
		LicenseImageRef: p.LicenseImageRef,
		IDDocumentRef:   p.IDDocumentRef,
		UpdatedAt:       p.UpdatedAt,
	}
}

// getProfileHandler returns the caller's profile, bootstrapping it from the
// identity provider's userinfo endpoint on first contact.
func (a *API) getProfileHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return
	}

	p, err := a.customers.Get(c, userID)
	if err != nil {
		if !errors.Is(err, customer.ErrNotFound) {
			logger.ErrorContext(c, "failed to get profile", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		fields := customer.Fields{}
		if a.identity != nil {
			token := bearerToken(c)
			if info, err := a.identity.GetUserInfo(c, token); err == nil {
				fields.Email = info.Email
				fields.FirstName = info.Name
			} else {
				logger.WarnContext(c, "failed to fetch userinfo", "error", err)
			}
		}
		if err := a.customers.Upsert(c, userID, fields); err != nil {
			logger.ErrorContext(c, "failed to create profile", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		p, err = a.customers.Get(c, userID)
		if err != nil {
			logger.ErrorContext(c, "failed to reload profile", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}

	c.JSON(http.StatusOK, toProfileResponse(p))
}

func (a *API) updateProfileHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return
	}

	var fields customer.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := a.customers.Upsert(c, userID, fields); err != nil {
		logger.ErrorContext(c, "failed to update profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	p, err := a.customers.Get(c, userID)
	if err != nil {
		logger.ErrorContext(c, "failed to reload profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(p))
}

func bearerToken(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}
