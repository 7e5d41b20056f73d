package handlers

import (
	"net/http"

	"github.com/farellandr/seatbook/internal/helpers"
	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/farellandr/seatbook/internal/middleware"
	"github.com/gin-gonic/gin"
)

type RowRequest struct {
	Name       string `json:"name"`
	TotalSeats int    `json:"totalSeats"`
}

type SectionRequest struct {
	Name string       `json:"name"`
	Rows []RowRequest `json:"rows"`
}

type EventRequest struct {
	Name     string           `json:"name"`
	Sections []SectionRequest `json:"sections"`
}

func (req EventRequest) toInput() inventory.CreateEventInput {
	in := inventory.CreateEventInput{
		Name:     req.Name,
		Sections: make([]inventory.SectionInput, 0, len(req.Sections)),
	}
	for _, section := range req.Sections {
		sectionIn := inventory.SectionInput{
			Name: section.Name,
			Rows: make([]inventory.RowInput, 0, len(section.Rows)),
		}
		for _, row := range section.Rows {
			sectionIn.Rows = append(sectionIn.Rows, inventory.RowInput{
				Name:       row.Name,
				TotalSeats: row.TotalSeats,
			})
		}
		in.Sections = append(in.Sections, sectionIn)
	}
	return in
}

func CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	svc := middleware.GetInventory(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Inventory service not found.")
		return
	}

	event, err := svc.CreateEvent(c.Request.Context(), req.toInput())
	if err != nil {
		helpers.RespondWithInventoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event created successfully",
		"event":   event,
	})
}

func ListEvents(c *gin.Context) {
	svc := middleware.GetInventory(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Inventory service not found.")
		return
	}

	events, err := svc.GetAllEvents(c.Request.Context())
	if err != nil {
		helpers.RespondWithInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Events retrieved successfully",
		"event":   events,
	})
}

func GetEvent(c *gin.Context) {
	svc := middleware.GetInventory(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Inventory service not found.")
		return
	}

	event, err := svc.GetEventByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		helpers.RespondWithInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event retrieved successfully",
		"event":   event,
	})
}

func GetEventAvailability(c *gin.Context) {
	svc := middleware.GetInventory(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Inventory service not found.")
		return
	}

	availability, err := svc.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		helpers.RespondWithInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, availability)
}
