package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/assessment"
)

type assessmentAPI struct {
	svc      *assessment.Service
	validate *validator.Validate
}

var _ crudAPI = (*assessmentAPI)(nil)

func (api *assessmentAPI) list(ctx echo.Context) error {
	var filter assessment.QueryFilter
	if err := echo.QueryParamsBinder(ctx).Int64("course", &filter.CourseID).BindError(); err != nil {
		return err
	}
	assessments, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	return ctx.JSON(http.StatusOK, assessments)
}

// create saves the assessment, notifies the students of its course and emails them.
func (api *assessmentAPI) create(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	return fanoutResult(ctx, "assessment", a, err)
}

func (api *assessmentAPI) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	a, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting assessment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentAPI) update(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data.AsUpdate())
}

func (api *assessmentAPI) partialUpdate(ctx echo.Context) error {
	var data assessment.UpdateAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssessment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data)
}

func (api *assessmentAPI) save(ctx echo.Context, data assessment.UpdateAssessment) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	a, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating assessment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentAPI) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type submissionAPI struct {
	svc      *assessment.Service
	validate *validator.Validate
}

var _ crudAPI = (*submissionAPI)(nil)

func (api *submissionAPI) list(ctx echo.Context) error {
	var filter assessment.SubmissionFilter
	err := echo.QueryParamsBinder(ctx).
		Int64("assessment", &filter.AssessmentID).
		Int64("student", &filter.StudentID).
		BindError()
	if err != nil {
		return err
	}
	submissions, err := api.svc.QuerySubmissions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, submissions)
}

func (api *submissionAPI) create(ctx echo.Context) error {
	var data assessment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateSubmission(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *submissionAPI) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.GetSubmission(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionAPI) update(ctx echo.Context) error {
	var data assessment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data.AsUpdate())
}

func (api *submissionAPI) partialUpdate(ctx echo.Context) error {
	var data assessment.UpdateSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data)
}

func (api *submissionAPI) save(ctx echo.Context, data assessment.UpdateSubmission) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.UpdateSubmission(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionAPI) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSubmission(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	return ctx.NoContent(http.StatusNoContent)
}
