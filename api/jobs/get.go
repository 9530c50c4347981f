package jobs

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/api/types"
	jobservice "github.com/killallgit/parable-studio/internal/services/jobs"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
)

// Get returns the state of a pipeline job
// @Summary      Get a job
// @Description  Status and progress of the job returned by a trigger. The track snapshot stays authoritative.
// @Tags         jobs
// @Produce      json
// @Param        id path int true "Job ID"
// @Success      200 {object} types.JobResponse "Job state"
// @Failure      400 {object} types.ErrorResponse "Invalid ID"
// @Failure      404 {object} types.ErrorResponse "Job not found"
// @Router       /api/v1/jobs/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		job, err := deps.JobService.GetJob(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, jobservice.ErrJobNotFound) {
				err = apperrors.NotFound("job", id)
			}
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.FromJob(job))
	}
}
