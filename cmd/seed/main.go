// File: slotchain/cmd/seed/main.go
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"slotchain/database"
	availabilityRepo "slotchain/database/repository/availability"
	"slotchain/models"
	"slotchain/services/availability"
	"slotchain/utils"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var timezones = []string{"UTC", "Europe/London", "America/New_York", "Asia/Kolkata", "Africa/Nairobi"}

// Seeds creators with random profiles and a week of availability. Each
// creator's private key is printed so requests can be signed locally.
func main() {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "slotchain")
	v.SetDefault("SEED_CREATORS", 5)
	v.SetDefault("SEED_DAYS", 7)
	v.SetDefault("SEED_RANDOM", 42)

	logger := utils.InitializeLogger("development", "info")
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := database.Connect(ctx, v.GetString("DATABASE_URL"), logger)
	if err != nil {
		logger.Fatal("seed: failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = database.Disconnect(client) }()
	db := client.Database(v.GetString("DATABASE_NAME"))

	repo, err := availabilityRepo.NewMongoAvailabilityRepo(db)
	if err != nil {
		logger.Fatal("seed: failed to initialize availability repository", zap.Error(err))
	}
	svc := availability.NewAvailabilityService(repo, logger)
	users := db.Collection("users")

	faker := gofakeit.New(uint64(v.GetInt64("SEED_RANDOM")))
	days := v.GetInt("SEED_DAYS")
	today := time.Now().UTC()

	for i := 0; i < v.GetInt("SEED_CREATORS"); i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			logger.Fatal("seed: failed to generate wallet key", zap.Error(err))
		}
		wallet := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

		now := time.Now().UTC()
		user := models.User{
			WalletAddress: wallet,
			FullName:      faker.Name(),
			Email:         faker.Email(),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		_, err = users.UpdateOne(ctx,
			bson.M{"walletAddress": wallet},
			bson.M{"$set": user},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			logger.Fatal("seed: failed to upsert user", zap.String("walletAddress", wallet), zap.Error(err))
		}

		req := models.UpsertAvailabilityRequest{
			Timezone: faker.RandomString(timezones),
			Interval: faker.RandomInt([]int{15, 30, 45, 60}),
			Range: models.DateRange{
				Start: today.Format(models.DateLayout),
				End:   today.AddDate(0, 0, days).Format(models.DateLayout),
			},
		}
		for d := 0; d < days; d++ {
			date := today.AddDate(0, 0, d)
			req.AvailableDays = append(req.AvailableDays, models.AvailableDay{
				Date:         date.Format(models.DateLayout),
				Availability: randomWeek(faker),
			})
		}

		doc, err := svc.UpsertAvailability(ctx, wallet, req)
		if err != nil {
			logger.Fatal("seed: failed to save availability", zap.String("walletAddress", wallet), zap.Error(err))
		}

		slots := 0
		for _, day := range doc.AvailableDays {
			slots += len(day.Slots)
		}
		fmt.Printf("%s  %-24s  key=%s  slots=%d\n",
			wallet, user.FullName, hexutil.Encode(crypto.FromECDSA(key)), slots)
	}

	logger.Info("Seeding complete")
}

// randomWeek opens a morning and an afternoon block on most weekdays.
func randomWeek(faker *gofakeit.Faker) models.WeekAvailability {
	week := models.WeekAvailability{}
	for _, day := range weekdays {
		if faker.Number(0, 9) < 2 {
			continue
		}
		morning := faker.Number(7, 10)
		afternoon := faker.Number(13, 15)
		week[day] = []models.Interval{
			{Start: fmt.Sprintf("%02d:00", morning), End: fmt.Sprintf("%02d:00", morning+2)},
			{Start: fmt.Sprintf("%02d:00", afternoon), End: fmt.Sprintf("%02d:30", afternoon+2)},
		}
	}
	return week
}
