package siteserver

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

// publicRoutes lists every page the marketing site publishes. The pages
// themselves are rendered by the frontend; this server only tells crawlers
// where they are.
var publicRoutes = []string{
	"/",
	"/about",
	"/about/team",
	"/services",
	"/services/indirect-taxes",
	"/services/company-law-and-compliances",
	"/services/msme-compliance",
	"/services/certifications",
	"/services/fema",
	"/services/internal-audit",
	"/insights",
	"/insights/blog",
	"/insights/event",
	"/insights/news",
	"/contact",
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

func (a *App) handleSitemap(c echo.Context) error {
	urls := make([]sitemapURL, 0, len(publicRoutes))
	for _, route := range publicRoutes {
		urls = append(urls, sitemapURL{Loc: buildURL(a.Config.URL, route)})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
