package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/sstracker/sstracker-backend/internal/middleware"
	"github.com/sstracker/sstracker-backend/internal/models"
	"github.com/sstracker/sstracker-backend/internal/storage"
)

const biltyListLimit = 50

// BiltyHandler serves the read-only bilty screens: lookup by GR number,
// the recent-shipments list and the consignor stats card.
type BiltyHandler struct {
	store storage.Store
}

// NewBiltyHandler creates a new bilty handler
func NewBiltyHandler(store storage.Store) *BiltyHandler {
	return &BiltyHandler{store: store}
}

// GetByGR fetches one bilty by its tracking number, city names joined in.
func (h *BiltyHandler) GetByGR(c *fiber.Ctx) error {
	grNo := c.Params("gr")
	if grNo == "" {
		return badRequest(c, "GR number is required")
	}

	b, err := h.store.GetBiltyByGR(grNo)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Bilty not found",
			})
		}
		log.Printf("❌ Bilty lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch bilty",
		})
	}

	views, err := h.withCities([]*models.Bilty{b})
	if err != nil {
		log.Printf("⚠️  City enrichment failed: %v", err)
		views = []*models.BiltyView{{Bilty: *b}}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"bilty":   views[0],
	})
}

// List returns the authenticated principal's recent bilties.
func (h *BiltyHandler) List(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	if p == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "not authenticated",
		})
	}

	var (
		bilties []*models.Bilty
		err     error
	)
	switch principal := p.(type) {
	case *models.Consignor:
		bilties, err = h.store.ListBiltiesForConsignor(principal, biltyListLimit)
	case *models.Transporter:
		bilties, err = h.store.ListBiltiesForTransporter(principal, biltyListLimit)
	default:
		return badRequest(c, "unknown principal type")
	}
	if err != nil {
		log.Printf("❌ Bilty list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch bilties",
		})
	}

	views, err := h.withCities(bilties)
	if err != nil {
		log.Printf("⚠️  City enrichment failed: %v", err)
		views = make([]*models.BiltyView, len(bilties))
		for i, b := range bilties {
			views[i] = &models.BiltyView{Bilty: *b}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"bilties": views,
		"count":   len(views),
	})
}

// Stats returns the consignor's bilty totals for the home screen card.
func (h *BiltyHandler) Stats(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	consignor, ok := p.(*models.Consignor)
	if !ok {
		return badRequest(c, "stats are available for consignor accounts only")
	}

	stats, err := h.store.GetBiltyStatsForConsignor(consignor)
	if err != nil {
		log.Printf("❌ Bilty stats failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch stats",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// Cities lists the city master for the rates screen.
func (h *BiltyHandler) Cities(c *fiber.Ctx) error {
	cities, err := h.store.ListCities()
	if err != nil {
		log.Printf("❌ City list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch cities",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cities":  cities,
	})
}

// withCities joins from/to city names onto bilties in one batched lookup.
func (h *BiltyHandler) withCities(bilties []*models.Bilty) ([]*models.BiltyView, error) {
	idSet := make(map[uint]bool)
	for _, b := range bilties {
		if b.FromCityID != 0 {
			idSet[b.FromCityID] = true
		}
		if b.ToCityID != 0 {
			idSet[b.ToCityID] = true
		}
	}

	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	cities, err := h.store.GetCitiesByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.City, len(cities))
	for _, city := range cities {
		byID[city.ID] = city
	}

	views := make([]*models.BiltyView, len(bilties))
	for i, b := range bilties {
		v := &models.BiltyView{Bilty: *b, FromCityName: "N/A", ToCityName: "N/A"}
		if city, ok := byID[b.FromCityID]; ok {
			v.FromCityName = city.CityName
			v.FromCityCode = city.CityCode
		}
		if city, ok := byID[b.ToCityID]; ok {
			v.ToCityName = city.CityName
			v.ToCityCode = city.CityCode
		}
		views[i] = v
	}
	return views, nil
}
