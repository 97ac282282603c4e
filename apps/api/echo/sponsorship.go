package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/sponsorship"
)

type sponsorshipAPI struct {
	svc      *sponsorship.Service
	validate *validator.Validate
}

var _ crudAPI = (*sponsorshipAPI)(nil)

func (api *sponsorshipAPI) list(ctx echo.Context) error {
	var filter sponsorship.QueryFilter
	err := echo.QueryParamsBinder(ctx).
		Int64("sponsor", &filter.SponsorID).
		Int64("student", &filter.StudentID).
		BindError()
	if err != nil {
		return err
	}
	sponsorships, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying sponsorships")
	}
	return ctx.JSON(http.StatusOK, sponsorships)
}

// create saves the sponsorship, notifies its sponsor and emails them.
func (api *sponsorshipAPI) create(ctx echo.Context) error {
	var data sponsorship.NewSponsorship
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSponsorship")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	return fanoutResult(ctx, "sponsorship", s, err)
}

func (api *sponsorshipAPI) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting sponsorship")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *sponsorshipAPI) update(ctx echo.Context) error {
	var data sponsorship.NewSponsorship
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSponsorship")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data.AsUpdate())
}

func (api *sponsorshipAPI) partialUpdate(ctx echo.Context) error {
	var data sponsorship.UpdateSponsorship
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSponsorship")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data)
}

func (api *sponsorshipAPI) save(ctx echo.Context, data sponsorship.UpdateSponsorship) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating sponsorship")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *sponsorshipAPI) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting sponsorship")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type paymentAPI struct {
	svc      *sponsorship.Service
	validate *validator.Validate
}

var _ crudAPI = (*paymentAPI)(nil)

func (api *paymentAPI) list(ctx echo.Context) error {
	var status string
	var filter sponsorship.PaymentFilter
	err := echo.QueryParamsBinder(ctx).
		String("status", &status).
		Int64("sponsor", &filter.SponsorID).
		BindError()
	if err != nil {
		return err
	}
	filter.Status = sponsorship.PaymentStatus(status)

	payments, err := api.svc.QueryPayments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentAPI) create(ctx echo.Context) error {
	var data sponsorship.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.CreatePayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *paymentAPI) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := api.svc.GetPayment(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentAPI) update(ctx echo.Context) error {
	var data sponsorship.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data.AsUpdate())
}

func (api *paymentAPI) partialUpdate(ctx echo.Context) error {
	var data sponsorship.UpdatePayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return api.save(ctx, data)
}

func (api *paymentAPI) save(ctx echo.Context, data sponsorship.UpdatePayment) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := api.svc.UpdatePayment(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentAPI) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeletePayment(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
