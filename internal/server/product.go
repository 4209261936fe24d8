package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
)

type createProductRequest struct {
	UID        string                   `json:"uid" binding:"required"`
	Name       string                   `json:"name" binding:"required"`
	Properties []productAttributeRequest `json:"properties" binding:"dive"`
}

type productAttributeRequest struct {
	UID      string  `json:"uid" binding:"required"`
	ValueUID *string `json:"value_uid"`
	Value    *int64  `json:"value"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	attrs := make([]productdomain.AttributeInput, 0, len(req.Properties))
	for _, p := range req.Properties {
		attrs = append(attrs, productdomain.AttributeInput{
			UID:      strings.TrimSpace(p.UID),
			ValueUID: p.ValueUID,
			Value:    p.Value,
		})
	}

	resp, err := s.productSvc.Create(c.Request.Context(), productdomain.CreateRequest{
		UID:        strings.TrimSpace(req.UID),
		Name:       strings.TrimSpace(req.Name),
		Properties: attrs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidateFacets()
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetProduct(c *gin.Context) {
	resp, err := s.productSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("uid")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	if err := s.productSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("uid"))); err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidateFacets()
	c.Status(http.StatusNoContent)
}
