package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/core/usecases"
)

// link is a HAL-style hypermedia reference.
type link struct {
	Href string `json:"href"`
}

type stopLinks struct {
	Self link  `json:"self"`
	Prev *link `json:"prev,omitempty"`
	Next *link `json:"next,omitempty"`
}

// stopSummary is returned by ingest and patch.
type stopSummary struct {
	StopID      int64     `json:"stop_id"`
	LastUpdated *string   `json:"last_updated"`
	Links       stopLinks `json:"_links"`
}

type operatorProfilesResponse struct {
	StopID   int64                    `json:"stop_id"`
	Profiles []domain.OperatorProfile `json:"profiles"`
}

// selectableFields can be restricted with ?include=.
var selectableFields = []domain.StopField{
	domain.FieldName,
	domain.FieldLatitude,
	domain.FieldLongitude,
	domain.FieldNextDeparture,
}

func parseStopID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("stop_id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// PUT /stops?query=Berlin+Hbf
func IngestStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stops, err := deps.Stops.Ingest(c.UserContext(), c.Query("query"))
		if err != nil {
			return writeServiceError(c, err)
		}

		out := make([]stopSummary, 0, len(stops))
		for _, s := range stops {
			stamp := s.LastUpdated
			out = append(out, stopSummary{
				StopID:      s.LocationID,
				LastUpdated: &stamp,
				Links:       stopLinks{Self: link{Href: s.SelfHref}},
			})
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

// GET /stops/:stop_id?include=name,longitude
func GetStopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseStopID(c)
		if !ok {
			return errBadRequest(c, msgStopNotStored)
		}

		view, err := deps.Stops.Read(c.UserContext(), id)
		if errors.Is(err, domain.ErrStopNotFound) {
			return errBadRequest(c, msgStopNotStored)
		}
		if err != nil {
			return writeServiceError(c, err)
		}

		links := viewLinks(deps.Stops.Links(), view)
		SetLinkHeader(c, links)
		return c.JSON(stopRepresentation(view.Stop, parseInclude(c.Query("include")), links))
	}
}

// PATCH /stops/:stop_id
func PatchStopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseStopID(c)
		if !ok {
			return errNotFound(c, msgStopNotFound)
		}

		stop, err := deps.Stops.Patch(c.UserContext(), id, c.Body())
		if err != nil {
			return writeServiceError(c, err)
		}

		return c.JSON(stopSummary{
			StopID:      stop.LocationID,
			LastUpdated: stop.LastUpdated,
			Links:       stopLinks{Self: link{Href: deps.Stops.Links().Stop(id)}},
		})
	}
}

// DELETE /stops/:stop_id
func DeleteStopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("stop_id")
		id, ok := parseStopID(c)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("the stop_id %s was not found in the database.", raw),
				"stop_id": raw,
			})
		}

		err := deps.Stops.Delete(c.UserContext(), id)
		switch {
		case err == nil:
			return c.JSON(fiber.Map{
				"message": fmt.Sprintf("the stop_id %d was removed from the database.", id),
				"stop_id": id,
			})
		case errors.Is(err, domain.ErrStopNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("the stop_id %d was not found in the database.", id),
				"stop_id": id,
			})
		case errors.Is(err, usecases.ErrNotDeleted):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "error"})
		default:
			return writeServiceError(c, err)
		}
	}
}

// GET /stops/:stop_id/departures
func OperatorProfilesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseStopID(c)
		if !ok {
			return errNotFound(c, msgStopNotFound)
		}

		profiles, err := deps.Stops.OperatorProfiles(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(operatorProfilesResponse{StopID: id, Profiles: profiles})
	}
}

// parseInclude returns nil when every field should be rendered.
func parseInclude(raw string) map[domain.StopField]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	set := make(map[domain.StopField]bool)
	for _, name := range strings.Split(raw, ",") {
		if f, ok := domain.ParseStopField(strings.TrimSpace(name)); ok {
			set[f] = true
		}
	}
	return set
}

func viewLinks(l usecases.Links, v *usecases.StopView) stopLinks {
	links := stopLinks{Self: link{Href: l.Stop(v.Stop.LocationID)}}
	if v.Prev != nil {
		links.Prev = &link{Href: l.Stop(*v.Prev)}
	}
	if v.Next != nil {
		links.Next = &link{Href: l.Stop(*v.Next)}
	}
	return links
}

func stopRepresentation(s *domain.Stop, include map[domain.StopField]bool, links stopLinks) fiber.Map {
	out := fiber.Map{
		"stop_id":      s.LocationID,
		"last_updated": s.LastUpdated,
		"_links":       links,
	}
	for _, f := range selectableFields {
		if include != nil && !include[f] {
			continue
		}
		switch f {
		case domain.FieldName:
			out[string(f)] = s.Name
		case domain.FieldLatitude:
			out[string(f)] = s.Latitude
		case domain.FieldLongitude:
			out[string(f)] = s.Longitude
		case domain.FieldNextDeparture:
			out[string(f)] = s.NextDeparture
		}
	}
	return out
}
