package routers

import (
	"pgstay/config"
	authController "pgstay/controllers/auth"
	bookingController "pgstay/controllers/booking"
	inquiryController "pgstay/controllers/inquiry"
	listingController "pgstay/controllers/listing"
	mediaController "pgstay/controllers/media"
	ownerController "pgstay/controllers/owner"
	reviewController "pgstay/controllers/review"
	"pgstay/database"
	"pgstay/middleware"
	authRoutes "pgstay/routers/authRoutes"
	bookingRoutes "pgstay/routers/bookingRoutes"
	inquiryRoutes "pgstay/routers/inquiryRoutes"
	listingRoutes "pgstay/routers/listingRoutes"
	ownerRoutes "pgstay/routers/ownerRoutes"
	reviewRoutes "pgstay/routers/reviewRoutes"
	uploadRoutes "pgstay/routers/uploadRoutes"
	"pgstay/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Up to six 5MB photos plus form fields.
const bodyLimit = 40 << 20

// Deps are the process wide clients built once at startup.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Log      *logrus.Logger
	Tokens   *middleware.TokenIssuer
	Sessions middleware.SessionStore // optional
	Images   utils.ImageStore
	Notifier *utils.Notifier
}

func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "pgstay",
		BodyLimit:    bodyLimit,
		ErrorHandler: middleware.ErrorHandler(d.Log, d.Config.IsProduction()),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CorsOrigin,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: true,
	}))

	// Enable the built-in logger middleware to log all requests
	if !d.Config.IsTest() {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	api := app.Group("/api")
	jwt := middleware.JWTMiddleware(d.Tokens)

	api.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(c.UserContext(), d.DB); err != nil {
			d.Log.WithError(err).Error("health check failed")
			return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, fiber.Map{"status": "down"})
		}
		return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"status": "ok"})
	})

	listings := &listingController.Handler{DB: d.DB, Images: d.Images, Log: d.Log}

	authRoutes.SetupAuthRoutes(api, &authController.Handler{
		DB:           d.DB,
		Tokens:       d.Tokens,
		Sessions:     d.Sessions,
		Log:          d.Log,
		SaltRound:    d.Config.SaltRound,
		SecureCookie: d.Config.IsProduction(),
	}, jwt)
	listingRoutes.SetupListingRoutes(api, listings, jwt)
	bookingRoutes.SetupBookingRoutes(api, &bookingController.Handler{DB: d.DB, Notifier: d.Notifier, Log: d.Log}, jwt)
	inquiryRoutes.SetupInquiryRoutes(api, &inquiryController.Handler{DB: d.DB, Notifier: d.Notifier, Log: d.Log}, jwt)
	reviewRoutes.SetupReviewRoutes(api, &reviewController.Handler{DB: d.DB, Log: d.Log}, jwt)
	ownerRoutes.SetupOwnerRoutes(api, &ownerController.Handler{DB: d.DB}, listings, jwt)
	uploadRoutes.SetupUploadRoutes(api, &mediaController.Handler{Images: d.Images, Log: d.Log}, jwt)

	return app
}
