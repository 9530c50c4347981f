package tracks

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
	"github.com/killallgit/parable-studio/internal/services/pipeline"
)

type triggerFunc func(ctx context.Context, trackID uint) (*pipeline.Trigger, error)

// trigger runs a pipeline request and answers 202 once the status is committed
func trigger(deps *types.Dependencies, pick func(types.Pipeline) triggerFunc, queued string) gin.HandlerFunc {
	return func(c *gin.Context) {
		track, ok := resolveTrack(c, deps)
		if !ok {
			return
		}

		result, err := pick(deps.Pipeline)(c.Request.Context(), track.ID)
		if err != nil {
			types.SendError(c, err)
			return
		}

		message := queued
		if result.Coalesced {
			message = "Already running"
		}
		types.SendAccepted(c, types.TriggerResponse{Trigger: *result, Message: message})
	}
}

// Process starts or resumes the automated steps
// @Summary      Process a track
// @Description  From draft runs steps 1-3; from error resumes at current_step + 1. A request while processing is coalesced.
// @Tags         tracks
// @Produce      json
// @Param        id       path int    true "Parable ID"
// @Param        language path string true "Track language" Enums(original, english)
// @Success      202 {object} types.TriggerResponse "Accepted"
// @Failure      404 {object} types.ErrorResponse "Parable or track not found"
// @Failure      409 {object} types.ErrorResponse "Track cannot be processed in its current state"
// @Router       /api/v1/parables/{id}/tracks/{language}/process [post]
func Process(deps *types.Dependencies) gin.HandlerFunc {
	return trigger(deps, func(p types.Pipeline) triggerFunc { return p.TriggerProcess }, "Processing started")
}

// RegenerateImages re-runs image synthesis
// @Summary      Regenerate images
// @Description  Drops every generated image and synthesizes a new set from the current prompts. Uploaded fragments become stale.
// @Tags         tracks
// @Produce      json
// @Param        id       path int    true "Parable ID"
// @Param        language path string true "Track language" Enums(original, english)
// @Success      202 {object} types.TriggerResponse "Accepted"
// @Failure      409 {object} types.ErrorResponse "No prompts yet or track busy"
// @Router       /api/v1/parables/{id}/tracks/{language}/regenerate-images [post]
func RegenerateImages(deps *types.Dependencies) gin.HandlerFunc {
	return trigger(deps, func(p types.Pipeline) triggerFunc { return p.TriggerRegenerateImages }, "Image regeneration started")
}

// GenerateFinal assembles the final video
// @Summary      Generate the final video
// @Description  Requires the narration and a fresh fragment for every scene
// @Tags         tracks
// @Produce      json
// @Param        id       path int    true "Parable ID"
// @Param        language path string true "Track language" Enums(original, english)
// @Success      202 {object} types.TriggerResponse "Accepted"
// @Failure      409 {object} types.ErrorResponse "Scenes or audio missing, or track busy"
// @Router       /api/v1/parables/{id}/tracks/{language}/generate-final [post]
func GenerateFinal(deps *types.Dependencies) gin.HandlerFunc {
	return trigger(deps, func(p types.Pipeline) triggerFunc { return p.TriggerFinal }, "Final assembly started")
}
