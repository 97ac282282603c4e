package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/access"
	"github.com/trezcool/academia/core/course"
)

type courseAPI struct {
	svc      *course.Service
	validate *validator.Validate
}

var _ crudAPI = (*courseAPI)(nil)

func (api *courseAPI) list(ctx echo.Context) error {
	var filter course.QueryFilter
	if err := echo.QueryParamsBinder(ctx).String("search", &filter.Search).BindError(); err != nil {
		return err
	}
	filter.Clean()
	var ord Ordering
	ord.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseAPI) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseAPI) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	c, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseAPI) update(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data.AsUpdate())
}

func (api *courseAPI) partialUpdate(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data)
}

func (api *courseAPI) save(ctx echo.Context, data course.UpdateCourse) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	c, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseAPI) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Videos live under their course. Reads follow the role permissions; writes are reserved to the
// instructor of the course, which the course.Service checks.

type videoAPI struct {
	svc      *course.Service
	validate *validator.Validate
}

var _ crudAPI = (*videoAPI)(nil)

func registerVideoAPI(g *echo.Group, svc *course.Service, validate *validator.Validate) {
	registerResource(g, "/course/:course_id/videos", access.Video, &videoAPI{svc: svc, validate: validate})
}

func (api *videoAPI) list(ctx echo.Context) error {
	courseID, err := paramID(ctx, "course_id")
	if err != nil {
		return err
	}
	videos, err := api.svc.QueryVideos(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "querying videos")
	}
	return ctx.JSON(http.StatusOK, videos)
}

func (api *videoAPI) create(ctx echo.Context) error {
	courseID, err := paramID(ctx, "course_id")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.NewVideo
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVideo")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	v, err := api.svc.CreateVideo(ctx.Request().Context(), usr, courseID, data)
	if err != nil {
		return errors.Wrap(err, "creating video")
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *videoAPI) retrieve(ctx echo.Context) error {
	courseID, err := paramID(ctx, "course_id")
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	v, err := api.svc.GetVideo(ctx.Request().Context(), courseID, id)
	if err != nil {
		return errors.Wrap(err, "getting video")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *videoAPI) update(ctx echo.Context) error {
	var data course.NewVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVideo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data.AsUpdate())
}

func (api *videoAPI) partialUpdate(ctx echo.Context) error {
	var data course.UpdateVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVideo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data)
}

func (api *videoAPI) save(ctx echo.Context, data course.UpdateVideo) error {
	courseID, err := paramID(ctx, "course_id")
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, err := api.svc.UpdateVideo(ctx.Request().Context(), usr, courseID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating video")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *videoAPI) destroy(ctx echo.Context) error {
	courseID, err := paramID(ctx, "course_id")
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.svc.DeleteVideo(ctx.Request().Context(), usr, courseID, id); err != nil {
		return errors.Wrap(err, "deleting video")
	}
	return ctx.NoContent(http.StatusNoContent)
}
