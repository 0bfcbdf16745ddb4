package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coursehub/lms/core/certificate"
)

type certificateApi struct {
	auth *Auth
	svc  *certificate.Service
}

func registerCertificateAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Auth, opts *Options) {
	api := certificateApi{auth: auth, svc: opts.CertificateSvc}

	// un-authed endpoints
	g.GET("/certificates/verify", api.verify)

	// authed endpoints
	g.GET("/courses/:id/certificate", api.download, jwt)
}

// Handlers

// download issues the certificate on first call and streams it as a PDF.
func (api *certificateApi) download(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	iss, err := api.svc.IssueIfEligible(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "issuing certificate")
	}

	var buf bytes.Buffer
	if err = certificate.Render(&buf, iss); err != nil {
		return errors.Wrap(err, "rendering certificate")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", certificate.FileName(iss)))
	return ctx.Stream(http.StatusOK, "application/pdf", &buf)
}

func (api *certificateApi) verify(ctx echo.Context) error {
	v, err := api.svc.Verify(ctx.Request().Context(), ctx.QueryParam("code"))
	if err != nil {
		return errors.Wrap(err, "verifying certificate")
	}
	return ctx.JSON(http.StatusOK, v)
}
