package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// VenueHandler handles venue listing and management requests
type VenueHandler struct {
	store storage.Store
}

// NewVenueHandler creates a new venue handler
func NewVenueHandler(store storage.Store) *VenueHandler {
	return &VenueHandler{store: store}
}

// RegisterVenue lists a new facility; it stays pending until an admin
// approves it
func (h *VenueHandler) RegisterVenue(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("userID").(string)

	var reg models.VenueRegistration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if reg.OpenHour == 0 && reg.CloseHour == 0 {
		reg.OpenHour, reg.CloseHour = 6, 23
	}
	if err := validate.Struct(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if reg.CloseHour <= reg.OpenHour {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Closing hour must be after opening hour",
		})
	}

	venue := &models.Venue{
		OwnerID:     ownerID,
		Name:        reg.Name,
		Description: reg.Description,
		Address:     reg.Address,
		City:        reg.City,
		State:       reg.State,
		Pincode:     reg.Pincode,
		Phone:       reg.Phone,
		OpenHour:    reg.OpenHour,
		CloseHour:   reg.CloseHour,
		Status:      models.VenueStatusPending,
	}
	for _, court := range reg.Courts {
		venue.Courts = append(venue.Courts, models.Court{
			Name:         court.Name,
			Sport:        court.Sport,
			PricePerHour: court.PricePerHour,
			Indoor:       court.Indoor,
			Active:       true,
		})
	}

	venue, err := h.store.CreateVenue(venue)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register venue",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Venue submitted for approval",
		"venue":   venue,
	})
}

// GetMyVenues lists the caller's venues including pending ones
func (h *VenueHandler) GetMyVenues(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("userID").(string)

	venues, err := h.store.GetVenuesByOwner(ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve venues",
		})
	}

	return c.JSON(fiber.Map{
		"venues": venues,
		"count":  len(venues),
	})
}

// ListVenues is the public browse endpoint with filters and pagination
func (h *VenueHandler) ListVenues(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	search := &models.VenueSearch{
		City:  c.Query("city"),
		Sport: c.Query("sport"),
		Page:  page,
		Limit: limit,
	}

	venues, total, err := h.store.SearchVenues(search)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search venues",
		})
	}

	return c.JSON(fiber.Map{
		"venues": venues,
		"count":  len(venues),
		"total":  total,
		"page":   search.Page,
	})
}

// GetVenue returns one approved venue with its courts
func (h *VenueHandler) GetVenue(c *fiber.Ctx) error {
	id := c.Params("id")

	venue, err := h.store.GetVenue(id)
	if err != nil || !venue.IsBookable() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Venue not found",
		})
	}

	return c.JSON(venue)
}

// UploadPhotos attaches uploaded images to the caller's venue
func (h *VenueHandler) UploadPhotos(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("userID").(string)
	id := c.Params("id")

	venue, err := h.store.GetVenue(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Venue not found",
		})
	}
	if venue.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not own this venue",
		})
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["photos"]) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No photos provided",
		})
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store photos",
		})
	}

	var urls []string
	if venue.PhotoURLs != "" {
		_ = json.Unmarshal([]byte(venue.PhotoURLs), &urls)
	}

	for _, file := range form.File["photos"] {
		ext := filepath.Ext(file.Filename)
		name := fmt.Sprintf("%s_%s%s", venue.VenueID, uuid.NewString(), ext)
		dest := filepath.Join(uploadDir, name)
		if err := c.SaveFile(file, dest); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to store photos",
			})
		}
		urls = append(urls, "/uploads/"+name)
	}

	encoded, _ := json.Marshal(urls)
	venue.PhotoURLs = string(encoded)
	if err := h.store.UpdateVenue(venue); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update venue",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Photos uploaded",
		"photos":  urls,
	})
}

// notFoundOr500 maps store errors onto handler responses
func notFoundOr500(c *fiber.Ctx, err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": what + " not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to retrieve " + what,
	})
}
