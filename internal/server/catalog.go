package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/catalog/internal/catalog/domain"
	"github.com/smallbiznis/catalog/internal/catalog/filter"
	obscontext "github.com/smallbiznis/catalog/internal/observability/context"
	"github.com/smallbiznis/catalog/pkg/db/pagination"
)

const contextFilterCountKey = "filter_count"

type listCatalogQuery struct {
	pagination.Pagination
	Name string `form:"name"`
	Sort string `form:"sort"`
}

func (s *Server) ListCatalog(c *gin.Context) {
	var query listCatalogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	filters, err := s.parseFilters(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListRequest{
		Name:       strings.TrimSpace(query.Name),
		SortBy:     strings.TrimSpace(query.Sort),
		Pagination: query.Pagination,
		Filters:    filters,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FilterCatalog(c *gin.Context) {
	var query struct {
		Name        string `form:"name"`
		ExcludeSelf string `form:"exclude_self"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	excludeSelf, err := parseOptionalBool(query.ExcludeSelf)
	if err != nil {
		AbortWithError(c, newValidationError("exclude_self", "invalid_exclude_self", "invalid exclude_self"))
		return
	}

	filters, err := s.parseFilters(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.Facets(c.Request.Context(), catalogdomain.FacetRequest{
		Name:        strings.TrimSpace(query.Name),
		Filters:     filters,
		ExcludeSelf: excludeSelf != nil && *excludeSelf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) parseFilters(c *gin.Context) (filter.Set, error) {
	filters, err := filter.Parse(c.Request.URL.Query())
	if err != nil {
		return nil, err
	}
	c.Set(contextFilterCountKey, len(filters))
	c.Request = c.Request.WithContext(obscontext.WithFilterCount(c.Request.Context(), len(filters)))
	return filters, nil
}
