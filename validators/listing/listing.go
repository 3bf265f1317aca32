package listingValidator

import (
	"mime/multipart"
	"pgstay/middleware"
	"pgstay/models"
	"pgstay/utils"
	"pgstay/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CreateListingRequest is accepted as JSON or as multipart form fields plus
// "photos" files.
type CreateListingRequest struct {
	Title          string         `json:"title" form:"title" validate:"required,min=3,max=120"`
	Description    string         `json:"description" form:"description" validate:"max=5000"`
	Address        string         `json:"address" form:"address" validate:"required,max=300"`
	City           string         `json:"city" form:"city" validate:"required,max=80"`
	College        string         `json:"college" form:"college" validate:"max=120"`
	Rent           float64        `json:"rent" form:"rent" validate:"required,gt=0"`
	Deposit        float64        `json:"deposit" form:"deposit" validate:"gte=0"`
	Gender         string         `json:"gender" form:"gender" validate:"omitempty,oneof=male female any"`
	Amenities      []string       `json:"amenities" form:"amenities" validate:"max=30,dive,max=40"`
	Photos         []models.Photo `json:"photos" form:"-" validate:"max=20,dive"`
	Lat            *float64       `json:"lat" form:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng            *float64       `json:"lng" form:"lng" validate:"omitempty,gte=-180,lte=180"`
	AvailableRooms *int           `json:"availableRooms" form:"availableRooms" validate:"omitempty,gte=0"`

	Files []*multipart.FileHeader `json:"-" form:"-"`
}

// UpdateListingRequest carries only the fields the caller sent. A non-nil
// Photos replaces the stored photo list; uploaded Files are appended.
type UpdateListingRequest struct {
	Title          *string        `json:"title" form:"title" validate:"omitempty,min=3,max=120"`
	Description    *string        `json:"description" form:"description" validate:"omitempty,max=5000"`
	Address        *string        `json:"address" form:"address" validate:"omitempty,min=1,max=300"`
	City           *string        `json:"city" form:"city" validate:"omitempty,min=1,max=80"`
	College        *string        `json:"college" form:"college" validate:"omitempty,max=120"`
	Rent           *float64       `json:"rent" form:"rent" validate:"omitempty,gt=0"`
	Deposit        *float64       `json:"deposit" form:"deposit" validate:"omitempty,gte=0"`
	Gender         *string        `json:"gender" form:"gender" validate:"omitempty,oneof=male female any"`
	Amenities      []string       `json:"amenities" form:"amenities" validate:"max=30,dive,max=40"`
	Photos         []models.Photo `json:"photos" form:"-" validate:"max=20,dive"`
	Lat            *float64       `json:"lat" form:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng            *float64       `json:"lng" form:"lng" validate:"omitempty,gte=-180,lte=180"`
	AvailableRooms *int           `json:"availableRooms" form:"availableRooms" validate:"omitempty,gte=0"`

	Files []*multipart.FileHeader `json:"-" form:"-"`
}

func (r *UpdateListingRequest) isEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Address == nil && r.City == nil &&
		r.College == nil && r.Rent == nil && r.Deposit == nil && r.Gender == nil &&
		r.Amenities == nil && r.Photos == nil && r.Lat == nil && r.Lng == nil &&
		r.AvailableRooms == nil && len(r.Files) == 0
}

type ListingQuery struct {
	Q         string   `query:"q" json:"q" validate:"max=100"`
	City      string   `query:"city" json:"city" validate:"max=80"`
	College   string   `query:"college" json:"college" validate:"max=120"`
	MinPrice  *float64 `query:"minPrice" json:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice  *float64 `query:"maxPrice" json:"maxPrice" validate:"omitempty,gte=0"`
	Gender    string   `query:"gender" json:"gender" validate:"omitempty,oneof=male female any"`
	Amenities string   `query:"amenities" json:"amenities"`
	Page      int      `query:"page" json:"page" validate:"gte=0,lte=100000"`
	Limit     int      `query:"limit" json:"limit" validate:"gte=0"`
	Sort      string   `query:"sort" json:"sort" validate:"omitempty,oneof=price_asc price_desc rating newest"`
}

// AmenityList splits the comma separated amenities filter.
func (q *ListingQuery) AmenityList() []string {
	return normalizeAmenities([]string{q.Amenities})
}

type NearbyQuery struct {
	Lat      *float64 `query:"lat" json:"lat" validate:"required,gte=-90,lte=90"`
	Lng      *float64 `query:"lng" json:"lng" validate:"required,gte=-180,lte=180"`
	RadiusKm float64  `query:"radiusKm" json:"radiusKm" validate:"gte=0,lte=50"`
	Page     int      `query:"page" json:"page" validate:"gte=0,lte=100000"`
	Limit    int      `query:"limit" json:"limit" validate:"gte=0"`
}

// normalizeAmenities accepts both repeated values and comma separated lists.
func normalizeAmenities(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

// checkGeo requires lat and lng together.
func checkGeo(lat, lng *float64, errors map[string]string) {
	if (lat == nil) != (lng == nil) {
		errors["lat"] = "lat and lng must be provided together!"
	}
}

// photoFiles validates the multipart "photos" files, if any.
func photoFiles(c *fiber.Ctx, errors map[string]string) []*multipart.FileHeader {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		errors["photos"] = "Invalid multipart form!"
		return nil
	}
	files := form.File["photos"]
	if len(files) > utils.MaxImageFiles {
		errors["photos"] = "You can upload at most 6 photos at a time!"
		return nil
	}
	for _, file := range files {
		if err := utils.CheckImageFile(file); err != nil {
			errors["photos"] = err.Error()
			return nil
		}
	}
	return files
}

// CreateListing validator middleware
func CreateListing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateListingRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Address = strings.TrimSpace(reqData.Address)
		reqData.City = strings.TrimSpace(reqData.City)
		reqData.College = strings.TrimSpace(reqData.College)
		reqData.Amenities = normalizeAmenities(reqData.Amenities)
		if reqData.Gender == "" {
			reqData.Gender = models.GenderAny
		}

		errors := validators.Check(reqData)
		checkGeo(reqData.Lat, reqData.Lng, errors)
		reqData.Files = photoFiles(c, errors)

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedListing", reqData)
		return c.Next()
	}
}

// UpdateListing validator middleware
func UpdateListing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateListingRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		if reqData.Amenities != nil {
			reqData.Amenities = normalizeAmenities(reqData.Amenities)
		}
		for _, field := range []*string{reqData.Title, reqData.Address, reqData.City, reqData.College} {
			if field != nil {
				*field = strings.TrimSpace(*field)
			}
		}

		errors := validators.Check(reqData)
		checkGeo(reqData.Lat, reqData.Lng, errors)
		reqData.Files = photoFiles(c, errors)

		if len(errors) == 0 && reqData.isEmpty() {
			errors["body"] = "Provide at least one field to update!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedListingUpdate", reqData)
		return c.Next()
	}
}

// ListListings validator middleware
func ListListings() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListingQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid query parameters!")
		}

		errors := validators.Check(reqData)
		if reqData.MinPrice != nil && reqData.MaxPrice != nil && *reqData.MinPrice > *reqData.MaxPrice {
			errors["minPrice"] = "minPrice cannot be greater than maxPrice!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedListingQuery", reqData)
		return c.Next()
	}
}

// Nearby validator middleware
func Nearby() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(NearbyQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid query parameters!")
		}

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		if reqData.RadiusKm == 0 {
			reqData.RadiusKm = 5
		}

		c.Locals("validatedNearby", reqData)
		return c.Next()
	}
}
