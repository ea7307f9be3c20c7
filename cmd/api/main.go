package main

import (
	"rentease/internal/auth"
	bookingshandler "rentease/internal/bookings/handler"
	bookingsrepo "rentease/internal/bookings/repository"
	bookingsservice "rentease/internal/bookings/service"
	bookingsvalidator "rentease/internal/bookings/validator"
	listingshandler "rentease/internal/listings/handler"
	listingsrepo "rentease/internal/listings/repository"
	listingsservice "rentease/internal/listings/service"
	listingsvalidator "rentease/internal/listings/validator"
	rhhandler "rentease/internal/rentalhistory/handler"
	rhrepo "rentease/internal/rentalhistory/repository"
	rhservice "rentease/internal/rentalhistory/service"
	usershandler "rentease/internal/users/handler"
	usersrepo "rentease/internal/users/repository"
	usersservice "rentease/internal/users/service"
	usersvalidator "rentease/internal/users/validator"
	"rentease/pkg/app"
	"rentease/pkg/blob"
	"rentease/pkg/config"
	"rentease/pkg/kafka"
	"rentease/pkg/sealer"
)

func main() {
	cfg := config.Load("rentease-api")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	blobs, err := blob.NewDiskStore(cfg.UploadDir)
	if err != nil {
		cfg.Log.Fatal("Failed to open blob store", "error", err)
	}

	tokenSealer, err := sealer.New(cfg.TokenKey)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize token sealer", "error", err)
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.MailTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	userRepo := usersrepo.NewMongoUserRepository(cfg)
	listingRepo := listingsrepo.NewMongoListingRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	historyRepo := rhrepo.NewMongoRentalHistoryRepository(cfg)

	authn := auth.NewAuthenticator(tokenSealer, userRepo)

	userService := usersservice.NewUserService(
		userRepo,
		usersvalidator.NewUserValidator(cfg.Log),
		tokenSealer,
		producer,
		blobs,
		cfg,
	)
	listingService := listingsservice.NewListingService(
		listingRepo,
		listingsvalidator.NewListingValidator(cfg.Log),
		blobs,
		cfg,
	)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		historyRepo,
		listingRepo,
		userRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		producer,
		cfg,
	)
	historyService := rhservice.NewRentalHistoryService(historyRepo, cfg)

	application := app.NewApplication(cfg)
	application.SetApp(
		usershandler.NewUserHandler(userService, authn, cfg.Log),
		listingshandler.NewListingHandler(listingService, authn, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, authn, cfg.Log),
		rhhandler.NewRentalHistoryHandler(historyService, authn, cfg.Log),
	)
	application.Run()
}
