package maps

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"ridecore/internal/modules/location"
	"ridecore/internal/types"
)

var ErrNoRoute = errors.New("no route found")

// matrixClient is the Distance Matrix part of *maps.Client.
type matrixClient interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client matrixClient
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// DistanceKm returns the driving distance between two points in kilometres.
func (s *RouteService) DistanceKm(ctx context.Context, origin, destination types.Point) (float64, error) {
	resp, err := s.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(origin)},
		Destinations: []string{latLng(destination)},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	})
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, ErrNoRoute
	}
	el := resp.Rows[0].Elements[0]
	if el == nil || el.Status != "OK" {
		return 0, ErrNoRoute
	}
	return float64(el.Distance.Meters) / 1000, nil
}

func latLng(p types.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// Distancer measures the ride distance between two points.
type Distancer interface {
	DistanceKm(ctx context.Context, origin, destination types.Point) (float64, error)
}

// FallbackDistancer asks the route service first and falls back to the
// great-circle distance when it is unset or fails.
type FallbackDistancer struct {
	route Distancer
	log   *zap.Logger
}

func NewFallbackDistancer(route Distancer, log *zap.Logger) *FallbackDistancer {
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackDistancer{route: route, log: log}
}

func (f *FallbackDistancer) DistanceKm(ctx context.Context, origin, destination types.Point) (float64, error) {
	if f.route != nil {
		km, err := f.route.DistanceKm(ctx, origin, destination)
		if err == nil {
			return km, nil
		}
		f.log.Warn("route distance unavailable, using great-circle distance", zap.Error(err))
	}
	return location.Distance(origin, destination), nil
}
