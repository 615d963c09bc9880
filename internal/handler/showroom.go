package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/parkplaza/parkplaza-backend/internal/model"
	"github.com/parkplaza/parkplaza-backend/internal/repository"
	"github.com/parkplaza/parkplaza-backend/internal/utils"
)

const (
	defaultRadiusKm  = 10.0
	showroomCacheKey = "showrooms:active"
	showroomCacheTTL = 60 * time.Second
)

// ShowroomHandler serves the public directory endpoints: the registration
// list, the nearby search and the city search.
type ShowroomHandler struct {
	Showrooms *repository.ShowroomRepo
	Cache     *redis.Client // nil disables caching
}

func NewShowroomHandler(s *repository.ShowroomRepo, cache *redis.Client) *ShowroomHandler {
	return &ShowroomHandler{Showrooms: s, Cache: cache}
}

// activeShowrooms returns the active directory, via the short-TTL Redis
// cache when available.  Nearby search scans the full active set on every
// request, so this is the one read worth caching.
func (h *ShowroomHandler) activeShowrooms(ctx context.Context) ([]model.Showroom, error) {
	if h.Cache != nil {
		if raw, err := h.Cache.Get(ctx, showroomCacheKey).Bytes(); err == nil {
			var cached []model.Showroom
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}
	list, err := h.Showrooms.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if h.Cache != nil {
		if raw, err := json.Marshal(list); err == nil {
			h.Cache.Set(ctx, showroomCacheKey, raw, showroomCacheTTL)
		}
	}
	return list, nil
}

// List handles GET /v1/showrooms, the public list shown on the registration
// page.
func (h *ShowroomHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.activeShowrooms(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	views := make([]showroomView, 0, len(list))
	for _, s := range list {
		views = append(views, newShowroomView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"showrooms": views})
}

// Nearby handles GET /v1/user/showrooms/nearby.  The parameter contract is
// what the existing clients send: `longitude` and `latitude` in decimal
// degrees (both required) and an optional `radius` in kilometres, default
// 10.  Active showrooms within the radius are returned sorted by distance,
// each annotated with its distance in km.
func (h *ShowroomHandler) Nearby(c echo.Context) error {
	lng, errLng := strconv.ParseFloat(c.QueryParam("longitude"), 64)
	lat, errLat := strconv.ParseFloat(c.QueryParam("latitude"), 64)
	if errLng != nil || errLat != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "longitude and latitude are required"})
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "coordinates out of range"})
	}
	radius := defaultRadiusKm
	if raw := c.QueryParam("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "radius must be a positive number"})
		}
		radius = r
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.activeShowrooms(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	views := make([]showroomView, 0, len(list))
	for _, s := range list {
		d := utils.HaversineKm(lat, lng, s.Latitude, s.Longitude)
		if d > radius {
			continue
		}
		v := newShowroomView(s)
		dist := d
		v.DistanceKm = &dist
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return *views[i].DistanceKm < *views[j].DistanceKm })

	return c.JSON(http.StatusOK, echo.Map{"showrooms": views, "radius_km": radius})
}

// SearchByCity handles GET /v1/user/showrooms/search?city=.
func (h *ShowroomHandler) SearchByCity(c echo.Context) error {
	city := strings.TrimSpace(c.QueryParam("city"))
	if city == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "city is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Showrooms.ListByCity(ctx, city)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	views := make([]showroomView, 0, len(list))
	for _, s := range list {
		views = append(views, newShowroomView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"showrooms": views})
}
