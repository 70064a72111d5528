package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetRouteQueryHandler reads a route and its manifest with two SQL statements.
type GetRouteQueryHandler struct {
	db *gorm.DB
}

func NewGetRouteQueryHandler(db *gorm.DB) GetRouteQueryHandler {
	return GetRouteQueryHandler{db: db}
}

// Handle returns the route read model with packages ordered by manifest position.
// An unknown route is *errs.ObjectNotFoundError.
func (h GetRouteQueryHandler) Handle(ctx context.Context, query GetRouteQuery) (GetRouteQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetRouteQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)
	view, err := scanRoute(db, query.RouteID())
	if err != nil {
		return GetRouteQueryResponse{}, err
	}

	rows, err := db.Raw(`
		SELECT
			id,
			position,
			tracking_code,
			address,
			neighborhood,
			phone,
			latitude,
			longitude,
			status,
			updated_at
		FROM packages
		WHERE route_id = ?
		ORDER BY position, id
	`, query.RouteID().String()).Rows()
	if err != nil {
		return GetRouteQueryResponse{}, fmt.Errorf("list route packages: %w", err)
	}
	defer rows.Close()

	view.Packages = make([]PackageView, 0)
	for rows.Next() {
		var (
			p        PackageView
			id       uuid.UUID
			lat, lon *float64
			status   int
		)
		if err = rows.Scan(&id, &p.Position, &p.TrackingCode, &p.Address, &p.Neighborhood, &p.Phone,
			&lat, &lon, &status, &p.UpdatedAt); err != nil {
			return GetRouteQueryResponse{}, err
		}

		if p.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return GetRouteQueryResponse{}, err
		}
		if p.Point, err = kernel.ParseGeoPoint(lat, lon, false); err != nil {
			return GetRouteQueryResponse{}, err
		}
		p.Status = shipment.Status(status).String()
		view.Packages = append(view.Packages, p)
	}
	if err = rows.Err(); err != nil {
		return GetRouteQueryResponse{}, err
	}

	return view, nil
}

func scanRoute(db *gorm.DB, routeID kernel.UUID) (GetRouteQueryResponse, error) {
	var (
		view       GetRouteQueryResponse
		id         uuid.UUID
		driverID   *uuid.UUID
		driverName sql.NullString
		status     int
		completed  *time.Time
		finalized  *time.Time
	)
	err := db.Raw(`
		SELECT
			r.id,
			r.name,
			r.driver_id,
			d.display_name,
			r.status,
			r.created_at,
			r.completed_at,
			r.finalized_at,
			r.finalized_by
		FROM routes r
		LEFT JOIN drivers d ON d.id = r.driver_id
		WHERE r.id = ?
	`, routeID.String()).Row().Scan(
		&id, &view.Name, &driverID, &driverName, &status, &view.CreatedAt, &completed, &finalized, &view.FinalizedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetRouteQueryResponse{}, errs.NewObjectNotFoundError("route", routeID)
	}
	if err != nil {
		return GetRouteQueryResponse{}, fmt.Errorf("get route: %w", err)
	}

	if view.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return GetRouteQueryResponse{}, err
	}
	if driverID != nil {
		d, idErr := kernel.UUIDFromBytes(driverID[:])
		if idErr != nil {
			return GetRouteQueryResponse{}, idErr
		}
		view.DriverID = &d
	}
	view.DriverName = driverName.String
	view.Status = route.Status(status).String()
	view.CompletedAt = completed
	view.FinalizedAt = finalized
	return view, nil
}
