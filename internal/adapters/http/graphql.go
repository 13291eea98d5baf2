package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/core/usecases"
	"github.com/samirrijal/stopsapi/internal/pkg/geospatial"
)

// buildSchema creates a read-only GraphQL schema over the stored stops.
// Resolvers never call the upstream APIs.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	stopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stop",
		Fields: graphql.Fields{
			"stop_id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":           &graphql.Field{Type: graphql.String},
			"latitude":       &graphql.Field{Type: graphql.Float},
			"longitude":      &graphql.Field{Type: graphql.Float},
			"next_departure": &graphql.Field{Type: graphql.String},
			"last_updated":   &graphql.Field{Type: graphql.String},
			"self":           &graphql.Field{Type: graphql.String},
			"prev":           &graphql.Field{Type: graphql.Int, Description: "Id of the stop ordered before this one"},
			"next":           &graphql.Field{Type: graphql.Int, Description: "Id of the stop ordered after this one"},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Meters from the given point, null without stored coordinates",
				Args: graphql.FieldConfigArgument{
					"latitude":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"longitude": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					node, _ := p.Source.(map[string]interface{})
					stop, _ := node[stopSourceKey].(*domain.Stop)
					if stop == nil {
						return nil, nil
					}
					lat, _ := p.Args["latitude"].(float64)
					lon, _ := p.Args["longitude"].(float64)
					d, ok := geospatial.DistanceFrom(lat, lon, stop.Latitude, stop.Longitude)
					if !ok {
						return nil, nil
					}
					return d, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"stop": &graphql.Field{
				Type:        stopType,
				Description: "A stored stop by id, null when absent",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					view, err := deps.Stops.Stored(p.Context, int64(id))
					if errors.Is(err, domain.ErrStopNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return stopNode(deps.Stops.Links(), view), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// stopSourceKey keeps the record on the node for computed fields.
const stopSourceKey = "__stop"

func stopNode(l usecases.Links, v *usecases.StopView) map[string]interface{} {
	s := v.Stop
	node := map[string]interface{}{
		stopSourceKey:    s,
		"stop_id":        s.LocationID,
		"name":           optional(s.Name),
		"latitude":       optional(s.Latitude),
		"longitude":      optional(s.Longitude),
		"next_departure": optional(s.NextDeparture),
		"last_updated":   optional(s.LastUpdated),
		"self":           l.Stop(s.LocationID),
	}
	if v.Prev != nil {
		node["prev"] = *v.Prev
	}
	if v.Next != nil {
		node["next"] = *v.Next
	}
	return node
}

// optional unwraps p so a nil column resolves to null.
func optional[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
