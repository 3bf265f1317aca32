package listingController

import (
	"errors"
	"math"
	"pgstay/middleware"
	"pgstay/models"
	"pgstay/utils"
	listingValidator "pgstay/validators/listing"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50
)

type Handler struct {
	DB     *gorm.DB
	Images utils.ImageStore
	Log    *logrus.Logger
}

// filtered builds the catalog query for q. Each call returns a fresh chain so
// the count and the page query do not share state.
func (h *Handler) filtered(c *fiber.Ctx, q *listingValidator.ListingQuery) *gorm.DB {
	tx := h.DB.WithContext(c.UserContext()).Model(&models.Listing{})

	if text := strings.ToLower(strings.TrimSpace(q.Q)); text != "" {
		like := containsPattern(text)
		tx = tx.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(address) LIKE ? ESCAPE '\' OR LOWER(city) LIKE ? ESCAPE '\' OR LOWER(college) LIKE ? ESCAPE '\')`,
			like, like, like, like, like)
	}
	if city := strings.TrimSpace(q.City); city != "" {
		tx = tx.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if college := strings.TrimSpace(q.College); college != "" {
		tx = tx.Where(`LOWER(college) LIKE ? ESCAPE '\'`, containsPattern(strings.ToLower(college)))
	}
	if q.MinPrice != nil {
		tx = tx.Where("rent >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("rent <= ?", *q.MaxPrice)
	}
	switch q.Gender {
	case models.GenderMale, models.GenderFemale:
		// listings open to everyone match a gendered search too
		tx = tx.Where("gender IN ?", []string{q.Gender, models.GenderAny})
	case models.GenderAny:
		tx = tx.Where("gender = ?", models.GenderAny)
	}
	for _, amenity := range q.AmenityList() {
		tx = tx.Where(datatypes.JSONArrayQuery("amenities").Contains(amenity))
	}
	return tx
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches text literally anywhere in a column.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func sortOrder(sortBy string) string {
	switch sortBy {
	case "price_asc":
		return "rent ASC, id DESC"
	case "price_desc":
		return "rent DESC, id DESC"
	case "rating":
		return "avg_rating DESC, rating_count DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

// ListListings returns one page of the public catalog
func (h *Handler) ListListings(c *fiber.Ctx) error {
	q := c.Locals("validatedListingQuery").(*listingValidator.ListingQuery)
	page := utils.NewPage(q.Page, q.Limit, defaultPageSize, maxPageSize)

	var total int64
	if err := h.filtered(c, q).Count(&total).Error; err != nil {
		return err
	}

	listings := []models.Listing{}
	err := h.filtered(c, q).
		Order(sortOrder(q.Sort)).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&listings).Error
	if err != nil {
		return err
	}

	return middleware.JsonResponse(c, fiber.StatusOK, utils.Paginated(listings, total, page))
}

func (h *Handler) GetListing(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Listing not found")
	}

	var listing models.Listing
	err = h.DB.WithContext(c.UserContext()).
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, email, phone, avatar, role, created_at, updated_at")
		}).
		First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return err
	}

	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"listing": listing})
}

// CreateListing stores a listing owned by the caller. Multipart photo files
// are uploaded to the CDN and appended after any photo URLs in the body.
func (h *Handler) CreateListing(c *fiber.Ctx) error {
	reqData := c.Locals("validatedListing").(*listingValidator.CreateListingRequest)

	photos := append([]models.Photo{}, reqData.Photos...)
	if len(reqData.Files) > 0 {
		uploaded, err := utils.UploadImages(c.UserContext(), h.Images, reqData.Files)
		if err != nil {
			return h.uploadFailed(c, err)
		}
		photos = append(photos, uploaded...)
	}

	availableRooms := 1
	if reqData.AvailableRooms != nil {
		availableRooms = *reqData.AvailableRooms
	}

	listing := models.Listing{
		OwnerID:        middleware.UserID(c),
		Title:          reqData.Title,
		Description:    reqData.Description,
		Address:        reqData.Address,
		City:           reqData.City,
		College:        reqData.College,
		Rent:           reqData.Rent,
		Deposit:        reqData.Deposit,
		Gender:         reqData.Gender,
		Amenities:      datatypes.NewJSONSlice(append([]string{}, reqData.Amenities...)),
		Photos:         datatypes.NewJSONSlice(photos),
		Lat:            reqData.Lat,
		Lng:            reqData.Lng,
		AvailableRooms: availableRooms,
	}

	if err := h.DB.WithContext(c.UserContext()).Create(&listing).Error; err != nil {
		h.destroyPhotos(c, photos[len(reqData.Photos):])
		return err
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, fiber.Map{"listing": listing})
}

// UpdateListing applies the sent fields to a listing the caller owns.
// Photos dropped from the list are removed from the CDN after the save.
func (h *Handler) UpdateListing(c *fiber.Ctx) error {
	listing := c.Locals("listing").(*models.Listing)
	reqData := c.Locals("validatedListingUpdate").(*listingValidator.UpdateListingRequest)

	if reqData.Title != nil {
		listing.Title = *reqData.Title
	}
	if reqData.Description != nil {
		listing.Description = *reqData.Description
	}
	if reqData.Address != nil {
		listing.Address = *reqData.Address
	}
	if reqData.City != nil {
		listing.City = *reqData.City
	}
	if reqData.College != nil {
		listing.College = *reqData.College
	}
	if reqData.Rent != nil {
		listing.Rent = *reqData.Rent
	}
	if reqData.Deposit != nil {
		listing.Deposit = *reqData.Deposit
	}
	if reqData.Gender != nil {
		listing.Gender = *reqData.Gender
	}
	if reqData.Amenities != nil {
		listing.Amenities = datatypes.NewJSONSlice(reqData.Amenities)
	}
	if reqData.Lat != nil && reqData.Lng != nil {
		listing.Lat = reqData.Lat
		listing.Lng = reqData.Lng
	}
	if reqData.AvailableRooms != nil {
		listing.AvailableRooms = *reqData.AvailableRooms
	}

	var removed []models.Photo
	if reqData.Photos != nil {
		removed = removedPhotos(listing.Photos, reqData.Photos)
		listing.Photos = datatypes.NewJSONSlice(append([]models.Photo{}, reqData.Photos...))
	}

	var uploaded []models.Photo
	if len(reqData.Files) > 0 {
		var err error
		uploaded, err = utils.UploadImages(c.UserContext(), h.Images, reqData.Files)
		if err != nil {
			return h.uploadFailed(c, err)
		}
		listing.Photos = append(listing.Photos, uploaded...)
	}

	// the rating aggregate belongs to the review endpoints
	err := h.DB.WithContext(c.UserContext()).Omit("avg_rating", "rating_count").Save(listing).Error
	if err != nil {
		h.destroyPhotos(c, uploaded)
		return err
	}

	h.destroyPhotos(c, removed)
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"listing": listing})
}

// DeleteListing removes the listing with its bookings, inquiries, reviews and
// favorites, then asks the CDN to drop every photo. CDN failures do not undo
// the deletion.
func (h *Handler) DeleteListing(c *fiber.Ctx) error {
	listing := c.Locals("listing").(*models.Listing)

	err := h.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&models.Inquiry{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_favorites WHERE listing_id = ?", listing.ID).Error; err != nil {
			return err
		}
		return tx.Delete(listing).Error
	})
	if err != nil {
		return err
	}

	h.destroyPhotos(c, listing.Photos)
	return middleware.MessageResponse(c, fiber.StatusOK, "Listing deleted")
}

// OwnerListings returns every listing the caller owns, newest first
func (h *Handler) OwnerListings(c *fiber.Ctx) error {
	listings := []models.Listing{}
	err := h.DB.WithContext(c.UserContext()).
		Where("owner_id = ?", middleware.UserID(c)).
		Order("created_at DESC, id DESC").
		Find(&listings).Error
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"items": listings})
}

type nearbyListing struct {
	models.Listing
	DistanceKm float64 `json:"distanceKm"`
}

// Nearby returns listings within radiusKm of a point, closest first. A
// bounding box narrows the rows in SQL; the exact distance is computed here.
func (h *Handler) Nearby(c *fiber.Ctx) error {
	q := c.Locals("validatedNearby").(*listingValidator.NearbyQuery)
	page := utils.NewPage(q.Page, q.Limit, defaultPageSize, maxPageSize)
	lat, lng := *q.Lat, *q.Lng

	minLat, maxLat, minLng, maxLng := utils.BoundingBox(lat, lng, q.RadiusKm)

	var candidates []models.Listing
	err := h.DB.WithContext(c.UserContext()).
		Where("lat IS NOT NULL AND lng IS NOT NULL").
		Where("lat BETWEEN ? AND ?", minLat, maxLat).
		Where("lng BETWEEN ? AND ?", minLng, maxLng).
		Find(&candidates).Error
	if err != nil {
		return err
	}

	matches := make([]nearbyListing, 0, len(candidates))
	for _, listing := range candidates {
		distance := utils.HaversineKm(lat, lng, *listing.Lat, *listing.Lng)
		if distance <= q.RadiusKm {
			matches = append(matches, nearbyListing{Listing: listing, DistanceKm: math.Round(distance*100) / 100})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].DistanceKm < matches[j].DistanceKm })

	total := int64(len(matches))
	start := min(max(page.Offset(), 0), len(matches))
	end := min(start+page.Limit, len(matches))

	return middleware.JsonResponse(c, fiber.StatusOK, utils.Paginated(matches[start:end], total, page))
}

// removedPhotos lists the photos of before that are absent from after, by URL.
func removedPhotos(before []models.Photo, after []models.Photo) []models.Photo {
	kept := make(map[string]bool, len(after))
	for _, photo := range after {
		kept[photo.URL] = true
	}
	var removed []models.Photo
	for _, photo := range before {
		if !kept[photo.URL] {
			removed = append(removed, photo)
		}
	}
	return removed
}

// destroyPhotos issues one CDN delete per photo and only logs failures.
func (h *Handler) destroyPhotos(c *fiber.Ctx, photos []models.Photo) {
	for _, photo := range photos {
		if err := h.Images.Destroy(c.UserContext(), utils.PhotoPublicID(photo)); err != nil {
			h.Log.WithError(err).WithField("url", photo.URL).Warn("failed to delete photo from CDN")
		}
	}
}

func (h *Handler) uploadFailed(c *fiber.Ctx, err error) error {
	if errors.Is(err, utils.ErrImageStoreDisabled) {
		return middleware.MessageResponse(c, fiber.StatusInternalServerError, "Image uploads are not configured")
	}
	h.Log.WithError(err).Error("photo upload failed")
	return middleware.MessageResponse(c, fiber.StatusInternalServerError, "Failed to upload photos")
}
