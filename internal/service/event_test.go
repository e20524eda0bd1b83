package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainsofcommerce/events-api/internal/memstore"
	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/repository"
	"github.com/captainsofcommerce/events-api/internal/service"
)

func validEventRequest() model.CreateEventRequest {
	return model.CreateEventRequest{
		Title:         "Spring Fundraiser",
		Description:   "Annual gala",
		StartDateTime: time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2026, 4, 10, 22, 0, 0, 0, time.UTC),
		Location:      "Hilton Ballroom",
		EventType:     model.EventTypeFundraiser,
		IsPublished:   true,
	}
}

func TestCreateEvent(t *testing.T) {
	store := memstore.New()
	svc := service.NewEventService(store.Events())

	event, err := svc.CreateEvent(context.Background(), validEventRequest(), "staff-1")
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "Spring Fundraiser", event.Title)
	assert.Equal(t, "staff-1", event.CreatedByID)
	assert.True(t, event.IsPublished)
}

func TestCreateEventTrimsWhitespace(t *testing.T) {
	store := memstore.New()
	svc := service.NewEventService(store.Events())

	req := validEventRequest()
	req.Title = "  Spring Fundraiser  "
	req.Location = " Hilton Ballroom "

	event, err := svc.CreateEvent(context.Background(), req, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, "Spring Fundraiser", event.Title)
	assert.Equal(t, "Hilton Ballroom", event.Location)
}

func TestCreateEventValidation(t *testing.T) {
	store := memstore.New()
	svc := service.NewEventService(store.Events())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.CreateEventRequest)
	}{
		{"missing title", func(r *model.CreateEventRequest) { r.Title = "" }},
		{"whitespace title", func(r *model.CreateEventRequest) { r.Title = "   " }},
		{"missing description", func(r *model.CreateEventRequest) { r.Description = "" }},
		{"missing location", func(r *model.CreateEventRequest) { r.Location = "" }},
		{"unknown event type", func(r *model.CreateEventRequest) { r.EventType = "BAKE_SALE" }},
		{"end before start", func(r *model.CreateEventRequest) {
			r.EndDateTime = r.StartDateTime.Add(-time.Hour)
		}},
		{"end equals start", func(r *model.CreateEventRequest) { r.EndDateTime = r.StartDateTime }},
		{"zero max attendees", func(r *model.CreateEventRequest) { r.MaxAttendees = intPtr(0) }},
		{"bad image url", func(r *model.CreateEventRequest) { r.ImageURL = "not a url" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validEventRequest()
			tt.mutate(&req)
			_, err := svc.CreateEvent(ctx, req, "staff-1")
			assert.ErrorIs(t, err, service.ErrInvalidArgument)
		})
	}
}

func TestListEventsFilters(t *testing.T) {
	store := memstore.New()
	svc := service.NewEventService(store.Events())
	ctx := context.Background()

	fundraiser := validEventRequest()
	_, err := svc.CreateEvent(ctx, fundraiser, "staff-1")
	require.NoError(t, err)

	drive := validEventRequest()
	drive.Title = "Toy Drive"
	drive.EventType = model.EventTypeToyDrive
	drive.IsPublished = false
	_, err = svc.CreateEvent(ctx, drive, "staff-1")
	require.NoError(t, err)

	all, err := svc.ListEvents(ctx, model.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	published, err := svc.ListEvents(ctx, model.EventFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "Spring Fundraiser", published[0].Title)

	drives, err := svc.ListEvents(ctx, model.EventFilter{EventType: model.EventTypeToyDrive})
	require.NoError(t, err)
	require.Len(t, drives, 1)
	assert.Equal(t, "Toy Drive", drives[0].Title)

	after := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	future, err := svc.ListEvents(ctx, model.EventFilter{StartAfter: &after})
	require.NoError(t, err)
	assert.Empty(t, future)
}

func TestUpdateEvent(t *testing.T) {
	store := memstore.New()
	svc := service.NewEventService(store.Events())
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validEventRequest(), "staff-1")
	require.NoError(t, err)

	req := validEventRequest()
	req.Title = "Renamed Gala"
	req.MaxAttendees = intPtr(100)

	updated, err := svc.UpdateEvent(ctx, event.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Gala", updated.Title)
	require.NotNil(t, updated.MaxAttendees)
	assert.Equal(t, 100, *updated.MaxAttendees)
	assert.Equal(t, event.CreatedByID, updated.CreatedByID)

	_, err = svc.UpdateEvent(ctx, "no-such-event", validEventRequest())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteEventCascades(t *testing.T) {
	store := memstore.New()
	svc := service.NewEventService(store.Events())
	ctx := context.Background()

	store.SeedUser(model.User{ID: "user-1", Email: "user-1@example.com"})
	event, err := svc.CreateEvent(ctx, validEventRequest(), "staff-1")
	require.NoError(t, err)

	_, err = store.Registrations().Register(ctx, event.ID, "user-1")
	require.NoError(t, err)
	_, err = store.Comments().Create(ctx, event.ID, "user-1", "see you there")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(ctx, event.ID))

	_, err = svc.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Registrations().GetByEventAndUser(ctx, event.ID, "user-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteEvent(ctx, event.ID), repository.ErrNotFound)
}
