package main

import (
	"context"
	"fmt"
	"log"

	"pulseid/internal/common/security"
	"pulseid/internal/domain/model"
	"pulseid/internal/domain/repository"
	"pulseid/internal/platform/config"
	"pulseid/internal/platform/database"

	"github.com/google/uuid"
)

type seedUser struct {
	Name  string
	Email string
}

var sampleUsers = []seedUser{
	{"John Smith", "john.smith@example.com"},
	{"Emily Johnson", "emily.johnson@example.com"},
	{"Michael Brown", "michael.brown@example.com"},
	{"Sarah Davis", "sarah.davis@example.com"},
	{"David Wilson", "david.wilson@example.com"},
	{"Jennifer Taylor", "jennifer.taylor@example.com"},
	{"Robert Anderson", "robert.anderson@example.com"},
	{"Lisa Thomas", "lisa.thomas@example.com"},
	{"Daniel Martinez", "daniel.martinez@example.com"},
	{"Jessica Robinson", "jessica.robinson@example.com"},
	{"Christopher Lee", "christopher.lee@example.com"},
	{"Amanda Walker", "amanda.walker@example.com"},
	{"Matthew Hall", "matthew.hall@example.com"},
	{"Olivia Allen", "olivia.allen@example.com"},
	{"Andrew Young", "andrew.young@example.com"},
	{"Sophia King", "sophia.king@example.com"},
	{"James Wright", "james.wright@example.com"},
	{"Emma Scott", "emma.scott@example.com"},
	{"Benjamin Green", "benjamin.green@example.com"},
	{"Ava Baker", "ava.baker@example.com"},
	{"William Adams", "william.adams@example.com"},
	{"Mia Nelson", "mia.nelson@example.com"},
	{"Alexander Carter", "alexander.carter@example.com"},
	{"Charlotte Mitchell", "charlotte.mitchell@example.com"},
	{"Ethan Perez", "ethan.perez@example.com"},
}

func main() {
	config.Load()
	database.Connect()
	defer database.Close()

	ctx := context.Background()

	// Clear existing users
	if _, err := database.DB.ExecContext(ctx, `DELETE FROM users`); err != nil {
		log.Fatalf("Error clearing users: %v", err)
	}
	fmt.Println("Cleared existing users")

	// One shared hash keeps seeding fast; every sample account logs in
	// with "password123".
	hashedPassword, err := security.HashPassword("password123")
	if err != nil {
		log.Fatalf("Error hashing seed password: %v", err)
	}

	userRepo := repository.NewPgUserRepository(database.DB)
	for _, su := range sampleUsers {
		user := &model.User{
			ID:             uuid.NewString(),
			Name:           su.Name,
			Email:          su.Email,
			HashedPassword: hashedPassword,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Error seeding user %s: %v", su.Email, err)
		}
	}

	fmt.Printf("%d users seeded successfully\n", len(sampleUsers))
}
