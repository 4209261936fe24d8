package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/catalog/internal/clock"
	"github.com/smallbiznis/catalog/internal/migration"
	"github.com/smallbiznis/catalog/internal/property/domain"
	"github.com/smallbiznis/catalog/internal/property/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, db
}

func colorRequest() domain.CreateRequest {
	return domain.CreateRequest{
		UID:  "color",
		Name: "Color",
		Kind: "list",
		Values: []domain.ValueInput{
			{ValueUID: "red", Label: "Red"},
			{ValueUID: "blue", Label: "Blue"},
		},
	}
}

func TestCreateEnumeratedProperty(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, colorRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.KindEnumerated, resp.Kind)
	require.Len(t, resp.Values, 2)

	got, err := svc.Get(ctx, "color")
	require.NoError(t, err)
	assert.Equal(t, "Color", got.Name)
	assert.Equal(t, []domain.ValueResponse{
		{ValueUID: "red", Label: "Red"},
		{ValueUID: "blue", Label: "Blue"},
	}, got.Values)
}

func TestCreateIntegerPropertyIgnoresValues(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, domain.CreateRequest{
		UID:    "weight",
		Name:   "Weight",
		Kind:   "INT",
		Values: []domain.ValueInput{{ValueUID: "x", Label: "X"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindInteger, resp.Kind)
	assert.Empty(t, resp.Values)

	var count int64
	require.NoError(t, db.Model(&domain.PropertyValue{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRejectsInvalidSchema(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	cases := map[string]domain.CreateRequest{
		"blank uid":     {UID: " ", Name: "Color", Kind: "list", Values: []domain.ValueInput{{ValueUID: "a"}}},
		"blank name":    {UID: "color", Name: "", Kind: "list", Values: []domain.ValueInput{{ValueUID: "a"}}},
		"unknown kind":  {UID: "color", Name: "Color", Kind: "bool"},
		"list no value": {UID: "color", Name: "Color", Kind: "list"},
		"blank value":   {UID: "color", Name: "Color", Kind: "list", Values: []domain.ValueInput{{ValueUID: " "}}},
		"dup value":     {UID: "color", Name: "Color", Kind: "list", Values: []domain.ValueInput{{ValueUID: "a"}, {ValueUID: "a"}}},
	}
	for name, req := range cases {
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidSchema, name)
	}

	var count int64
	require.NoError(t, db.Model(&domain.Property{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateDuplicateKey(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, colorRequest())
	require.NoError(t, err)

	_, err = svc.Create(ctx, colorRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestValueUIDUniqueOnlyWithinProperty(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, colorRequest())
	require.NoError(t, err)

	req := colorRequest()
	req.UID = "trim_color"
	req.Name = "Trim color"
	_, err = svc.Create(ctx, req)
	assert.NoError(t, err)
}

func TestListReturnsAllPropertiesWithValues(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, colorRequest())
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{UID: "age", Name: "Age", Kind: "int"})
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "age", items[0].UID)
	assert.Empty(t, items[0].Values)
	assert.Equal(t, "color", items[1].UID)
	assert.Len(t, items[1].Values, 2)
}

func TestDeleteRemovesValues(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, colorRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "color"))

	_, err = svc.Get(ctx, "color")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&domain.PropertyValue{}).Where("property_uid = ?", "color").Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.Delete(ctx, "color"), domain.ErrNotFound)
}
