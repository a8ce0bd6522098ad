package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/app/services"
)

func TestLeaderboard_ProjectsDriverStanding(t *testing.T) {
	f := newFixture()
	drivers := services.NewDriverService(f.users, f.profiles, f.transactions)
	ravi := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	meena := f.registerUser(t, "meena", models.RoleDeliveryBoy)

	rid, err := primitive.ObjectIDFromHex(ravi.ID)
	require.NoError(t, err)
	mid, err := primitive.ObjectIDFromHex(meena.ID)
	require.NoError(t, err)

	require.NoError(t, f.profiles.RecordDelivery(context.Background(), rid, 50))
	require.NoError(t, f.profiles.RecordDelivery(context.Background(), mid, 80))
	require.NoError(t, f.profiles.RecordDelivery(context.Background(), mid, 120))

	rows, err := drivers.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by deliveries; only name and standing figures are exposed,
	// never license, location or ids.
	assert.Equal(t, services.LeaderboardRow{Name: "meena", Deliveries: 2, Earnings: 200}, rows[0])
	assert.Equal(t, services.LeaderboardRow{Name: "ravi", Deliveries: 1, Earnings: 50}, rows[1])
}

func TestLeaderboard_SkipsOrphanedProfiles(t *testing.T) {
	f := newFixture()
	drivers := services.NewDriverService(f.users, f.profiles, f.transactions)
	ravi := f.registerUser(t, "ravi", models.RoleDeliveryBoy)

	rid, err := primitive.ObjectIDFromHex(ravi.ID)
	require.NoError(t, err)
	require.NoError(t, f.profiles.RecordDelivery(context.Background(), rid, 50))

	// A profile whose user record is gone never reaches the board.
	require.NoError(t, f.profiles.Create(context.Background(), &models.DeliveryProfile{
		UserID:          primitive.NewObjectID(),
		TotalDeliveries: 9,
	}))

	rows, err := drivers.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ravi", rows[0].Name)
}
