package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SetLinkHeader mirrors the _links object as an RFC 8288 Link header.
func SetLinkHeader(c *fiber.Ctx, l stopLinks) {
	links := []string{fmt.Sprintf(`<%s>; rel="self"`, l.Self.Href)}
	if l.Prev != nil {
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, l.Prev.Href))
	}
	if l.Next != nil {
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, l.Next.Href))
	}
	c.Set("Link", strings.Join(links, ", "))
}
