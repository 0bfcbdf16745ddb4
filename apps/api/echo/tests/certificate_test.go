package tests

import (
	"bytes"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/lms/core/certificate"
	"github.com/coursehub/lms/tests"
)

func Test_certificateApi(t *testing.T) {
	setup(t)
	c := testutil.CreateCourse(t, crsRepo, "Algorithms", 1, 2)
	student := testutil.CreateUser(t, usrRepo, "Ada Lovelace", "ada@test.cd", "", "", true)
	token := getToken(t, student)
	path := "/v1/courses/" + c.ID + "/certificate"

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+c.ID+"/enroll", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	markLecture(t, token, c.ID, c.Lectures[0].ID)
	require.True(t, submit(t, token, c.ID, testutil.Answers(c, 2)).Passed)

	runHTTPTests(t, []httpTest{
		{name: "auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	})

	download := func(t *testing.T) []byte {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="Certificate_Ada_Lovelace_Algorithms.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")), "is a PDF")
		return rec.Body.Bytes()
	}

	t.Run("issued once", func(t *testing.T) {
		download(t)
		download(t)

		sent := mailSvc.SentMessages()
		var issued int
		for _, msg := range sent {
			if msg.TemplateName == "certificate_issued" {
				issued++
				require.Len(t, msg.Attachments, 1)
				assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
				assert.Equal(t, "ada@test.cd", msg.To[0].Address)
			}
		}
		assert.Equal(t, 1, issued, "the certificate is emailed once")

		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me/certificates", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var certs []certificate.Certificate
		unmarshal(t, rec, &certs)
		assert.Len(t, certs, 1)
	})

	t.Run("verify", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me/certificates", token)
		app.ServeHTTP(rec, req)
		var certs []certificate.Certificate
		unmarshal(t, rec, &certs)
		require.Len(t, certs, 1)
		code := certs[0].Code

		verifyPath := func(code string) string { return "/v1/certificates/verify?code=" + url.QueryEscape(code) }
		invalid := marchallObj(t, httpErr{Error: certificate.ErrInvalidCode.Error()})

		runHTTPTests(t, []httpTest{
			{
				name: "valid (no auth required)", path: verifyPath(code), wantCode: http.StatusOK,
				wantData: marchallObj(t, certificate.Verification{
					Valid: true, Recipient: "Ada Lovelace", CourseTitle: "Algorithms", DateIssued: certs[0].DateIssued,
				}),
			},
			{name: "empty", path: verifyPath(""), wantCode: http.StatusNotFound, wantData: invalid},
			{name: "garbage", path: verifyPath("lol"), wantCode: http.StatusNotFound, wantData: invalid},
			{name: "tampered", path: verifyPath(code + "x"), wantCode: http.StatusNotFound, wantData: invalid},
		})
	})
}
