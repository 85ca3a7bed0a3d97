package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/northlink/partnerhub/internal/clock"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"github.com/northlink/partnerhub/internal/territory/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func gormOpen() (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
}

func newTestTerritoryService(t *testing.T) territorydomain.Service {
	t.Helper()

	db, err := gormOpen()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&territorydomain.Territory{}))

	return NewService(ServiceParam{
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.NewRepository(db),
	})
}

func TestAddAndValidateTerritory(t *testing.T) {
	svc := newTestTerritoryService(t)
	ctx := context.Background()

	territory := makeTerritory("t-atl", "partner-a", 5, territorydomain.Boundaries{
		ZipCodes: []string{"30301"},
	})
	require.NoError(t, svc.AddTerritory(ctx, &territory))

	result, err := svc.ValidateAddress(ctx, atlantaAddress(), "")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, "t-atl", result.TerritoryID)
	assert.Equal(t, "partner-a", result.AssignedPartnerID)
}

func TestAddTerritoryRejectsInvalid(t *testing.T) {
	svc := newTestTerritoryService(t)
	ctx := context.Background()

	badPriority := makeTerritory("t-x", "partner-a", 11, territorydomain.Boundaries{})
	assert.ErrorIs(t, svc.AddTerritory(ctx, &badPriority), territorydomain.ErrInvalidPriority)

	badPolygon := makeTerritory("t-y", "partner-a", 5, territorydomain.Boundaries{
		Polygon: []territorydomain.Coordinates{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}},
	})
	assert.ErrorIs(t, svc.AddTerritory(ctx, &badPolygon), territorydomain.ErrInvalidPolygon)
}

func TestInactiveTerritoryNeverMatches(t *testing.T) {
	svc := newTestTerritoryService(t)
	ctx := context.Background()

	territory := makeTerritory("t-atl", "partner-a", 5, territorydomain.Boundaries{
		ZipCodes: []string{"30301"},
	})
	territory.IsActive = false
	require.NoError(t, svc.AddTerritory(ctx, &territory))

	// The inactive flag must survive the insert; a schema default silently
	// flipping it back to active would make the territory matchable.
	stored, err := svc.ListTerritories(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsActive)

	result, err := svc.ValidateAddress(ctx, atlantaAddress(), "")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
}

func TestValidatePartnerAccess(t *testing.T) {
	svc := newTestTerritoryService(t)
	ctx := context.Background()

	territory := makeTerritory("t-atl", "partner-a", 5, territorydomain.Boundaries{
		ZipCodes: []string{"30301"},
	})
	require.NoError(t, svc.AddTerritory(ctx, &territory))

	allowed, err := svc.ValidatePartnerAccess(ctx, "partner-a", "t-atl")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.ValidatePartnerAccess(ctx, "partner-b", "t-atl")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.ValidatePartnerAccess(ctx, "partner-a", "missing")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTerritoryStats(t *testing.T) {
	svc := newTestTerritoryService(t)
	ctx := context.Background()

	territory := makeTerritory("t-atl", "partner-a", 7, territorydomain.Boundaries{
		ZipCodes: []string{"30301", "30302"},
		Cities:   []string{"Atlanta"},
		Counties: []string{"Fulton"},
		States:   []string{"GA"},
		Polygon: []territorydomain.Coordinates{
			{Lat: 33, Lng: -85}, {Lat: 34, Lng: -85}, {Lat: 34, Lng: -84},
		},
	})
	require.NoError(t, svc.AddTerritory(ctx, &territory))

	stats, err := svc.TerritoryStats(ctx, "t-atl")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ZipCodes)
	assert.Equal(t, 1, stats.Cities)
	assert.Equal(t, 1, stats.Counties)
	assert.Equal(t, 1, stats.States)
	assert.Equal(t, 3, stats.PolygonVertices)
	assert.Equal(t, 7, stats.Priority)

	_, err = svc.TerritoryStats(ctx, "missing")
	assert.ErrorIs(t, err, territorydomain.ErrTerritoryNotFound)
}

func TestRemoveTerritory(t *testing.T) {
	svc := newTestTerritoryService(t)
	ctx := context.Background()

	territory := makeTerritory("t-atl", "partner-a", 5, territorydomain.Boundaries{
		ZipCodes: []string{"30301"},
	})
	require.NoError(t, svc.AddTerritory(ctx, &territory))
	require.NoError(t, svc.RemoveTerritory(ctx, "t-atl"))

	assert.ErrorIs(t, svc.RemoveTerritory(ctx, "t-atl"), territorydomain.ErrTerritoryNotFound)

	result, err := svc.ValidateAddress(ctx, atlantaAddress(), "")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
}

func TestPartnerTerritories(t *testing.T) {
	svc := newTestTerritoryService(t)
	ctx := context.Background()

	for _, territory := range []territorydomain.Territory{
		makeTerritory("t-1", "partner-a", 5, territorydomain.Boundaries{ZipCodes: []string{"30301"}}),
		makeTerritory("t-2", "partner-a", 8, territorydomain.Boundaries{Cities: []string{"Atlanta"}}),
		makeTerritory("t-3", "partner-b", 5, territorydomain.Boundaries{States: []string{"GA"}}),
	} {
		territory := territory
		require.NoError(t, svc.AddTerritory(ctx, &territory))
	}

	territories, err := svc.PartnerTerritories(ctx, "partner-a")
	require.NoError(t, err)
	require.Len(t, territories, 2)
	assert.Equal(t, "t-2", territories[0].ID)
	assert.Equal(t, []string{"30301"}, territories[1].Boundaries.Data().ZipCodes)
}

func TestPartnerTerritoriesExcludesInactive(t *testing.T) {
	svc := newTestTerritoryService(t)
	ctx := context.Background()

	active := makeTerritory("t-on", "partner-a", 5, territorydomain.Boundaries{ZipCodes: []string{"30301"}})
	require.NoError(t, svc.AddTerritory(ctx, &active))

	retired := makeTerritory("t-off", "partner-a", 8, territorydomain.Boundaries{Cities: []string{"Atlanta"}})
	retired.IsActive = false
	require.NoError(t, svc.AddTerritory(ctx, &retired))

	territories, err := svc.PartnerTerritories(ctx, "partner-a")
	require.NoError(t, err)
	require.Len(t, territories, 1)
	assert.Equal(t, "t-on", territories[0].ID)
}
