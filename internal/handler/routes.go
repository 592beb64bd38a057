package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Students *StudentHandler
	Sections *SectionHandler
	Teams    *TeamHandler
	Days     *DayHandler
	Exports  *ExportHandler
	Metrics  *MetricsHandler
}

// Register mounts every API route on api.
func Register(api gin.IRouter, h Handlers) {
	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.PATCH("/:name", h.Students.Update)
	students.DELETE("/:name", h.Students.Delete)

	sections := api.Group("/sections")
	sections.GET("", h.Sections.List)
	sections.POST("", h.Sections.Create)
	sections.PATCH("/:name", h.Sections.Update)
	sections.DELETE("/:name", h.Sections.Delete)

	teams := api.Group("/teams")
	teams.GET("", h.Teams.List)
	teams.POST("", h.Teams.Create)
	teams.PUT("/:name", h.Teams.Rename)
	teams.DELETE("/:name", h.Teams.Delete)

	days := api.Group("/days")
	days.GET("", h.Days.List)
	days.POST("", h.Days.Add)
	days.GET("/:day", h.Days.Get)
	days.PUT("/:day/name", h.Days.Name)
	days.POST("/:day/lock", h.Days.ToggleLock)
	days.PUT("/:day/assignments", h.Days.Assign)
	days.DELETE("/:day/assignments/:student", h.Days.Unassign)
	days.POST("/:day/students/:student/unpair", h.Days.UnpairStudent)
	days.POST("/:day/teams/:team/unpair", h.Days.UnpairTeam)
	days.POST("/:day/shuffle", h.Days.Shuffle)
	days.GET("/:day/team-options", h.Days.TeamOptions)
	days.GET("/:day/student-options", h.Days.StudentOptions)
	days.GET("/:day/sections/:section/students", h.Days.PresentInSection)

	if h.Exports != nil {
		days.POST("/:day/exports", h.Exports.Create)
		api.GET("/exports/:token", h.Exports.Download)
	}
	if h.Metrics != nil {
		api.GET("/metrics/summary", h.Metrics.Summary)
	}
}
