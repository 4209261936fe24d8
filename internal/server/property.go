package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	propertydomain "github.com/smallbiznis/catalog/internal/property/domain"
)

type createPropertyRequest struct {
	UID    string                 `json:"uid" binding:"required"`
	Name   string                 `json:"name" binding:"required"`
	Type   string                 `json:"type" binding:"required"`
	Values []propertyValueRequest `json:"values" binding:"dive"`
}

type propertyValueRequest struct {
	ValueUID string `json:"value_uid" binding:"required"`
	Value    string `json:"value"`
}

func (s *Server) CreateProperty(c *gin.Context) {
	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	values := make([]propertydomain.ValueInput, 0, len(req.Values))
	for _, v := range req.Values {
		values = append(values, propertydomain.ValueInput{
			ValueUID: strings.TrimSpace(v.ValueUID),
			Label:    v.Value,
		})
	}

	resp, err := s.propertySvc.Create(c.Request.Context(), propertydomain.CreateRequest{
		UID:    strings.TrimSpace(req.UID),
		Name:   strings.TrimSpace(req.Name),
		Kind:   strings.TrimSpace(req.Type),
		Values: values,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidateFacets()
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListProperties(c *gin.Context) {
	resp, err := s.propertySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProperty(c *gin.Context) {
	resp, err := s.propertySvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("uid")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProperty(c *gin.Context) {
	if err := s.propertySvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("uid"))); err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidateFacets()
	c.Status(http.StatusNoContent)
}
