package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmgate/workoutgen/internal/view"
)

// WarningMarker prefixes every user-facing error message.
const WarningMarker = "⚠️"

func ErrorMessage(err error) string {
	return WarningMarker + " Error generating plan: " + err.Error()
}

func RenderIndex(c *gin.Context, status int, data view.IndexData) {
	c.HTML(status, view.IndexTemplate, data)
}

func RenderPlan(c *gin.Context, name, plan string) {
	RenderIndex(c, http.StatusOK, view.IndexData{Name: name, WorkoutPlan: plan})
}

// RenderGenerationError renders the form with the error inline. Generation
// failures are reported with 200 so the page always renders.
func RenderGenerationError(c *gin.Context, err error) {
	RenderIndex(c, http.StatusOK, view.IndexData{WorkoutPlan: ErrorMessage(err), IsError: true})
}

func ProcessTooManyRequests(c *gin.Context) {
	RenderIndex(c, http.StatusTooManyRequests, view.IndexData{
		WorkoutPlan: WarningMarker + " Too many requests. Please wait a moment and try again.",
		IsError:     true,
	})
}
