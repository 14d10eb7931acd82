package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/divvyhq/divvy/internal/models"
)

type createInstanceRequest struct {
	Name        string `json:"name" binding:"required"`
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	Description string `json:"description"`
}

func (s *Server) handleCreateInstance(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}
	var req createInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance := &models.Instance{
		GroupID:     group.ID,
		Name:        req.Name,
		Date:        req.Date,
		Description: req.Description,
		CreatedBy:   c.GetString(userIDKey),
	}
	if err := s.store.CreateInstance(c.Request.Context(), instance); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInstanceResponse(instance))
}

func (s *Server) handleListInstances(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}
	instances, err := s.store.ListGroupInstances(c.Request.Context(), group.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]instanceResponse, 0, len(instances))
	for _, i := range instances {
		out = append(out, toInstanceResponse(i))
	}
	c.JSON(http.StatusOK, gin.H{"instances": out})
}

func (s *Server) handleDeleteInstance(c *gin.Context) {
	group := s.memberGroup(c, c.Param("id"))
	if group == nil {
		return
	}
	instance, err := s.store.GetInstance(c.Request.Context(), c.Param("instanceID"))
	if err != nil {
		writeError(c, err)
		return
	}
	if instance.GroupID != group.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := s.manager.OnInstanceDeleted(c.Request.Context(), group.ID, instance.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
